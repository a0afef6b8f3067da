package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sharpchess/internal/analysis"
)

// Kind names a class of analysis job. Each kind has its own slot.
type Kind string

const (
	KindEvaluation Kind = "evaluation"
	KindSharpness  Kind = "sharpness"
	KindBestLines  Kind = "best-lines"
)

// Kinds lists every job kind in a stable order.
var Kinds = []Kind{KindEvaluation, KindSharpness, KindBestLines}

// Status is the lifecycle state reported to pollers.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Request carries the parameters of a submission.
type Request struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
	Lines int    `json:"lines,omitempty"`
}

// Normalize fills defaults and clamps bounds for the given kind so equal
// questions produce equal requests.
func (r Request) Normalize(kind Kind) Request {
	switch kind {
	case KindEvaluation:
		r.Depth = analysis.NormalizeDepth(r.Depth, analysis.DefaultEvalDepth)
		r.Lines = 0
	case KindSharpness:
		r.Depth = analysis.NormalizeDepth(r.Depth, analysis.DefaultSharpnessDepth)
		r.Lines = 0
	case KindBestLines:
		r.Depth = analysis.NormalizeDepth(r.Depth, analysis.DefaultBestLinesDepth)
		r.Lines = analysis.NormalizeLines(r.Lines)
	}
	return r
}

// Job is one accepted submission.
type Job struct {
	ID          uuid.UUID
	Kind        Kind
	Request     Request
	SubmittedAt time.Time
}

// Snapshot is the observable state of a slot's latest submission.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	Request   Request   `json:"request"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RunFunc computes the result of a job.
type RunFunc func(ctx context.Context, job Job) (any, error)

// Recorder receives every job that ran to completion or failure.
type Recorder interface {
	Record(ctx context.Context, snap Snapshot, took time.Duration) error
}

// reused marks a result answered from the cache or archive instead of the
// engine. Such results are not recorded again.
type reused struct{ value any }

func unwrapReused(v any) (any, bool) {
	if r, ok := v.(reused); ok {
		return r.value, true
	}
	return v, false
}
