package jobs

import (
	"context"
	"encoding/json"
	"testing"

	"sharpchess/internal/analysis"
	"sharpchess/internal/engine"
)

type memCache map[string][]byte

func (m memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m[key]
	return b, ok, nil
}

func (m memCache) Set(_ context.Context, key string, val []byte) error {
	m[key] = val
	return nil
}

type memArchive map[string][]byte

func (m memArchive) Lookup(_ context.Context, kind Kind, req Request) ([]byte, bool, error) {
	b, ok := m[CacheKey(kind, req)]
	return b, ok, nil
}

type countingEngine struct {
	calls int
}

func (c *countingEngine) Analyse(context.Context, string, engine.Limit) (*engine.Analysis, error) {
	c.calls++
	cp := 25
	return &engine.Analysis{Lines: []engine.Line{{MultiPV: 1, Score: engine.Score{CP: &cp}, PV: []string{"e2e4"}}}}, nil
}

func (c *countingEngine) Close() error { return nil }

func TestRunnersCacheResults(t *testing.T) {
	eng := &countingEngine{}
	cache := memCache{}
	run := Runners(analysis.NewService(eng), cache, nil)[KindEvaluation]

	job := Job{Kind: KindEvaluation, Request: Request{FEN: startFEN}.Normalize(KindEvaluation)}
	for i := 0; i < 2; i++ {
		out, err := run(context.Background(), job)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		v, hit := unwrapReused(out)
		if v != 25 {
			t.Fatalf("run %d: expected 25, got %v", i, v)
		}
		if hit != (i == 1) {
			t.Fatalf("run %d: cache hit reported as %v", i, hit)
		}
	}
	if eng.calls != 1 {
		t.Fatalf("expected engine to run once, ran %d times", eng.calls)
	}
	if _, ok := cache[CacheKey(KindEvaluation, job.Request)]; !ok {
		t.Fatalf("expected result to be cached")
	}
}

func TestRunnersUseArchive(t *testing.T) {
	eng := &countingEngine{}
	req := Request{FEN: startFEN}.Normalize(KindBestLines)
	want := []analysis.BestLine{{Moves: "1. e4", Score: 31, Sharpness: 0.2}}
	b, _ := json.Marshal(want)
	archive := memArchive{CacheKey(KindBestLines, req): b}
	cache := memCache{}

	run := Runners(analysis.NewService(eng), cache, archive)[KindBestLines]
	out, err := run(context.Background(), Job{Kind: KindBestLines, Request: req})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	v, hit := unwrapReused(out)
	if !hit {
		t.Fatalf("archive hit should be marked as reused")
	}
	lines, ok := v.([]analysis.BestLine)
	if !ok || len(lines) != 1 || lines[0].Score != 31 {
		t.Fatalf("unexpected archived result %#v", v)
	}
	if eng.calls != 0 {
		t.Fatalf("engine should not run on archive hit")
	}
	if _, ok := cache[CacheKey(KindBestLines, req)]; !ok {
		t.Fatalf("archive hit should warm the cache")
	}
}

func TestCacheKey(t *testing.T) {
	got := CacheKey(KindBestLines, Request{FEN: startFEN, Depth: 20, Lines: 3})
	if want := "best-lines:20:3:" + startFEN; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
