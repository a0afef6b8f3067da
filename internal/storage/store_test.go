package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"sharpchess/internal/analysis"
	"sharpchess/internal/jobs"
)

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if s.DB() != nil {
		t.Fatalf("expected nil DB")
	}
	if err := s.Record(ctx, jobs.Snapshot{}, time.Second); err != nil {
		t.Fatalf("record on nil store: %v", err)
	}
	if _, ok, err := s.Lookup(ctx, jobs.KindEvaluation, jobs.Request{}); ok || err != nil {
		t.Fatalf("lookup on nil store: ok=%v err=%v", ok, err)
	}
	if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	stats, err := s.FetchStats(ctx)
	if err != nil || stats.Total != 0 || stats.ByKind == nil {
		t.Fatalf("unexpected stats %+v err=%v", stats, err)
	}
	if NewStore(nil) != nil {
		t.Fatalf("expected nil store for nil db")
	}
}

func TestFromSnapshotEvaluation(t *testing.T) {
	id := uuid.New()
	row, err := FromSnapshot(jobs.Snapshot{
		ID:      id,
		Kind:    jobs.KindEvaluation,
		Status:  jobs.StatusCompleted,
		Request: jobs.Request{FEN: "8/8/8/8/8/8/8/K6k w - - 0 1", Depth: 10},
		Result:  -42,
	}, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if row.ID != id || row.Kind != "evaluation" || row.Depth != 10 || row.DurationMS != 1500 {
		t.Fatalf("unexpected row %+v", row)
	}
	if row.Evaluation == nil || *row.Evaluation != -42 || row.Result != "-42" {
		t.Fatalf("unexpected evaluation %v result %q", row.Evaluation, row.Result)
	}
}

func TestFromSnapshotBestLines(t *testing.T) {
	row, err := FromSnapshot(jobs.Snapshot{
		Kind:   jobs.KindBestLines,
		Status: jobs.StatusCompleted,
		Result: []analysis.BestLine{{Moves: "1. e4", Score: 20, Sharpness: 0.5}},
	}, 0)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if want := `[{"moves":"1. e4","score":20,"sharpness":0.5}]`; row.Result != want {
		t.Fatalf("got %s, want %s", row.Result, want)
	}
	if row.Evaluation != nil || row.Sharpness != nil {
		t.Fatalf("scalar columns should stay empty for best lines")
	}
}

func TestFromSnapshotFailed(t *testing.T) {
	row, err := FromSnapshot(jobs.Snapshot{Kind: jobs.KindSharpness, Status: jobs.StatusFailed, Error: "boom"}, 0)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if row.Status != "failed" || row.Error != "boom" || row.Result != "" {
		t.Fatalf("unexpected row %+v", row)
	}
}
