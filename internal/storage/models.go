package storage

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one finished analysis job.
type Analysis struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       string    `gorm:"index:idx_analysis_request,priority:1" json:"kind"`
	FEN        string    `gorm:"index:idx_analysis_request,priority:2" json:"fen"`
	Depth      int       `gorm:"index:idx_analysis_request,priority:3" json:"depth"`
	Lines      int       `gorm:"index:idx_analysis_request,priority:4" json:"lines,omitempty"`
	Status     string    `gorm:"index" json:"status"`
	Evaluation *int      `json:"evaluation,omitempty"`
	Sharpness  *float64  `json:"sharpness,omitempty"`
	Result     string    `gorm:"type:text" json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
