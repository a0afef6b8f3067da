package analysis

import (
	"context"
	"errors"
	"fmt"

	"sharpchess/internal/engine"
)

// MateScore is the centipawn value assigned to an immediate forced mate.
const MateScore = 100000

// Request defaults and bounds.
const (
	DefaultEvalDepth      = 20
	DefaultSharpnessDepth = 16
	DefaultBestLinesDepth = 20
	DefaultLines          = 3
	MaxLines              = 10
	MaxDepth              = 60
)

// ErrNoWDL is returned when the engine does not report win/draw/loss
// statistics, which sharpness needs.
var ErrNoWDL = errors.New("engine reported no WDL statistics")

// Service answers analysis questions with a UCI engine.
type Service struct {
	eng engine.Analyser
}

// NewService wraps an engine.
func NewService(eng engine.Analyser) *Service {
	return &Service{eng: eng}
}

// Evaluate returns the score of fen in centipawns from the side to move.
func (s *Service) Evaluate(ctx context.Context, fen string, depth int) (int, error) {
	res, err := s.eng.Analyse(ctx, fen, engine.Limit{Depth: NormalizeDepth(depth, DefaultEvalDepth)})
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	best, err := res.Best()
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	return best.Score.Value(MateScore), nil
}

// Sharpness returns the sharpness of the engine's top line for fen.
func (s *Service) Sharpness(ctx context.Context, fen string, depth int) (float64, error) {
	res, err := s.eng.Analyse(ctx, fen, engine.Limit{Depth: NormalizeDepth(depth, DefaultSharpnessDepth)})
	if err != nil {
		return 0, fmt.Errorf("sharpness: %w", err)
	}
	best, err := res.Best()
	if err != nil {
		return 0, fmt.Errorf("sharpness: %w", err)
	}
	if best.WDL == nil {
		return 0, fmt.Errorf("sharpness: %w", ErrNoWDL)
	}
	return Sharpness(*best.WDL), nil
}

// BestLines returns up to n engine lines for fen with their score and
// sharpness.
func (s *Service) BestLines(ctx context.Context, fen string, n, depth int) ([]BestLine, error) {
	n = NormalizeLines(n)
	res, err := s.eng.Analyse(ctx, fen, engine.Limit{
		Depth:   NormalizeDepth(depth, DefaultBestLinesDepth),
		MultiPV: n,
	})
	if err != nil {
		return nil, fmt.Errorf("best lines: %w", err)
	}
	out := make([]BestLine, 0, len(res.Lines))
	for _, l := range res.Lines {
		bl := BestLine{
			Moves: FormatLine(fen, l.PV),
			Score: l.Score.Value(MateScore),
		}
		if l.WDL != nil {
			bl.Sharpness = Sharpness(*l.WDL)
		}
		out = append(out, bl)
	}
	return out, nil
}

// NormalizeDepth applies the default for non-positive depths and caps the
// rest at MaxDepth.
func NormalizeDepth(depth, def int) int {
	if depth <= 0 {
		return def
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// NormalizeLines clamps a requested line count to [1, MaxLines].
func NormalizeLines(n int) int {
	if n <= 0 {
		return DefaultLines
	}
	if n > MaxLines {
		return MaxLines
	}
	return n
}
