package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrClosed            = errors.New("engine is closed")
	ErrUnsupportedEngine = errors.New("unsupported engine type")
	ErrNoResult          = errors.New("engine returned no analysis lines")
)

// Supported engine types.
const (
	TypeStockfish = "stockfish"
	TypeLeela     = "leela"
)

// DefaultDepth is used when a Limit carries neither depth nor move time.
const DefaultDepth = 20

// Config describes how to start a UCI engine.
type Config struct {
	Type            string
	Path            string
	Options         map[string]string
	StartTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Limit bounds a single search.
type Limit struct {
	Depth    int
	MultiPV  int
	MoveTime time.Duration
}

// Score is an engine score from the side to move. Exactly one of CP and
// Mate is set on a parsed line.
type Score struct {
	CP   *int
	Mate *int
}

// Value flattens the score to centipawns, mapping mate-in-N to
// mateScore-N for the side delivering mate.
func (s Score) Value(mateScore int) int {
	if s.Mate != nil {
		n := *s.Mate
		if n > 0 {
			return mateScore - n
		}
		return -mateScore - n
	}
	if s.CP != nil {
		return *s.CP
	}
	return 0
}

func (s Score) String() string {
	switch {
	case s.Mate != nil:
		return fmt.Sprintf("mate %d", *s.Mate)
	case s.CP != nil:
		return fmt.Sprintf("cp %d", *s.CP)
	}
	return "none"
}

// WDL holds win/draw/loss expectations in permille.
type WDL struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

// Line is one principal variation reported by the engine.
type Line struct {
	MultiPV int
	Depth   int
	Nodes   int64
	Score   Score
	WDL     *WDL
	PV      []string
}

// Analysis is the final set of lines of a search, ordered by MultiPV.
type Analysis struct {
	Lines    []Line
	BestMove string
	Ponder   string
}

// Best returns the top line.
func (a *Analysis) Best() (Line, error) {
	if a == nil || len(a.Lines) == 0 {
		return Line{}, ErrNoResult
	}
	return a.Lines[0], nil
}

// Analyser runs searches on positions given as FEN.
type Analyser interface {
	Analyse(ctx context.Context, fen string, lim Limit) (*Analysis, error)
	Close() error
}

// OpError records the protocol step that failed.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("uci %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}
