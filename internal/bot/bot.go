package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/corentings/chess/v2"
)

// ErrNoMoves is returned when the side to move has no legal move.
var ErrNoMoves = errors.New("no legal moves")

// Mover picks a move for the side to move in fen, in UCI notation.
type Mover interface {
	Move(ctx context.Context, fen string) (string, error)
}

// Random plays a uniformly random legal move.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a random mover seeded with seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Move picks one of the legal moves of fen.
func (r *Random) Move(ctx context.Context, fen string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("random bot: %w", err)
	}
	moves := chess.NewGame(opt).ValidMoves()
	if len(moves) == 0 {
		return "", ErrNoMoves
	}
	r.mu.Lock()
	i := r.rng.Intn(len(moves))
	r.mu.Unlock()
	return moves[i].String(), nil
}
