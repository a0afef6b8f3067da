package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/uci"
)

// maxThink caps one engine bot search.
const maxThink = 5 * time.Second

// Engine plays the best move of a UCI engine searched to a fixed depth.
type Engine struct {
	mu    sync.Mutex
	eng   *uci.Engine
	depth int
}

// NewEngine starts the engine binary at path.
func NewEngine(path string, depth int) (*Engine, error) {
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("engine bot: %w", err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("engine bot: %w", err)
	}
	if depth <= 0 {
		depth = 8
	}
	return &Engine{eng: eng, depth: depth}, nil
}

// Move asks the engine for its best move in fen.
func (e *Engine) Move(ctx context.Context, fen string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("engine bot: %w", err)
	}
	g := chess.NewGame(opt)
	if len(g.ValidMoves()) == 0 {
		return "", ErrNoMoves
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Run cannot be interrupted, so the search itself is capped by time.
	search := uci.CmdGo{Depth: e.depth, MoveTime: searchBudget(ctx, maxThink)}
	if err := e.eng.Run(uci.CmdPosition{Position: g.Position()}, search); err != nil {
		return "", fmt.Errorf("engine bot: %w", err)
	}
	best := e.eng.SearchResults().BestMove
	if best == nil {
		return "", ErrNoMoves
	}
	return best.String(), nil
}

// Close shuts down the engine process.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.eng != nil {
		e.eng.Close()
		e.eng = nil
	}
}

// searchBudget is the time a search may take: max, or less when ctx expires
// sooner. A margin is kept for the engine to report its move.
func searchBudget(ctx context.Context, max time.Duration) time.Duration {
	const margin = 100 * time.Millisecond
	dl, ok := ctx.Deadline()
	if !ok {
		return max
	}
	left := time.Until(dl) - margin
	if left < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	if left < max {
		return left
	}
	return max
}
