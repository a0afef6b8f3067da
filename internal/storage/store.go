package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharpchess/internal/jobs"
)

// Store wraps a gorm DB instance and provides helper methods for persisting
// analyses. A nil *Store is valid and stores nothing.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// FromSnapshot converts a finished job into a row.
func FromSnapshot(snap jobs.Snapshot, took time.Duration) (Analysis, error) {
	row := Analysis{
		ID:         snap.ID,
		Kind:       string(snap.Kind),
		FEN:        snap.Request.FEN,
		Depth:      snap.Request.Depth,
		Lines:      snap.Request.Lines,
		Status:     string(snap.Status),
		Error:      snap.Error,
		DurationMS: took.Milliseconds(),
	}
	if snap.Status != jobs.StatusCompleted {
		return row, nil
	}
	b, err := json.Marshal(snap.Result)
	if err != nil {
		return row, err
	}
	row.Result = string(b)
	switch v := snap.Result.(type) {
	case int:
		row.Evaluation = &v
	case float64:
		row.Sharpness = &v
	}
	return row, nil
}

// Record persists a finished job.
func (s *Store) Record(ctx context.Context, snap jobs.Snapshot, took time.Duration) error {
	if s == nil {
		return nil
	}
	row, err := FromSnapshot(snap, took)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// Lookup returns the encoded result of the most recent completed analysis
// matching the request.
func (s *Store) Lookup(ctx context.Context, kind jobs.Kind, req jobs.Request) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	var row Analysis
	err := s.db.WithContext(ctx).
		Where("kind = ? AND fen = ? AND depth = ? AND lines = ? AND status = ?",
			string(kind), req.FEN, req.Depth, req.Lines, string(jobs.StatusCompleted)).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Result), true, nil
}

// Get fetches one analysis by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var row Analysis
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Stats represents aggregate counts of analyses.
type Stats struct {
	Total     int64            `json:"total"`
	Completed int64            `json:"completed"`
	Failed    int64            `json:"failed"`
	ByKind    map[string]int64 `json:"byKind"`
}

// FetchStats aggregates counts for the stats endpoint.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByKind: map[string]int64{}}
	if s == nil {
		return stats, nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&Analysis{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Analysis{}).Where("status = ?", string(jobs.StatusCompleted)).Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Analysis{}).Where("status = ?", string(jobs.StatusFailed)).Count(&stats.Failed).Error; err != nil {
		return stats, err
	}
	var rows []struct {
		Kind  string
		Count int64
	}
	if err := db.Model(&Analysis{}).Select("kind, count(*) as count").Group("kind").Scan(&rows).Error; err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.ByKind[r.Kind] = r.Count
	}
	return stats, nil
}

// Prune deletes analyses older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Analysis{})
	return res.RowsAffected, res.Error
}
