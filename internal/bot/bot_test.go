package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corentings/chess/v2"

	"sharpchess/pkg/utils"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestRandomPlaysLegalMove(t *testing.T) {
	r := NewRandom(42)
	for i := 0; i < 20; i++ {
		mv, err := r.Move(context.Background(), startFEN)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		opt, _ := chess.FEN(startFEN)
		if _, err := utils.PlayUCI(chess.NewGame(opt), mv); err != nil {
			t.Fatalf("bot played illegal move %q: %v", mv, err)
		}
	}
}

func TestRandomIsDeterministicForSeed(t *testing.T) {
	a, b := NewRandom(7), NewRandom(7)
	for i := 0; i < 5; i++ {
		ma, _ := a.Move(context.Background(), startFEN)
		mb, _ := b.Move(context.Background(), startFEN)
		if ma != mb {
			t.Fatalf("same seed diverged: %q vs %q", ma, mb)
		}
	}
}

func TestRandomNoMovesWhenMated(t *testing.T) {
	mated := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	if _, err := NewRandom(1).Move(context.Background(), mated); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}
}

func TestRandomRejectsBadFEN(t *testing.T) {
	if _, err := NewRandom(1).Move(context.Background(), "garbage"); err == nil {
		t.Fatalf("expected error for bad fen")
	}
}

func TestRandomHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRandom(1).Move(ctx, startFEN); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewEngineMissingBinary(t *testing.T) {
	if _, err := NewEngine("/nonexistent/stockfish", 4); err == nil {
		t.Fatalf("expected error for missing engine binary")
	}
}

func TestSearchBudget(t *testing.T) {
	if got := searchBudget(context.Background(), 5*time.Second); got != 5*time.Second {
		t.Fatalf("no deadline: got %s", got)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if got := searchBudget(ctx, 5*time.Second); got <= 0 || got >= time.Second {
		t.Fatalf("deadline should bound the search, got %s", got)
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel2()
	if got := searchBudget(ctx2, 5*time.Second); got != 10*time.Millisecond {
		t.Fatalf("expired deadline should use the floor, got %s", got)
	}
}
