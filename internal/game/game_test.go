package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corentings/chess/v2"

	"sharpchess/internal/bot"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// scripted replays a fixed list of bot moves.
type scripted struct {
	mu    sync.Mutex
	moves []string
}

func (s *scripted) Move(context.Context, string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.moves) == 0 {
		return "", bot.ErrNoMoves
	}
	mv := s.moves[0]
	s.moves = s.moves[1:]
	return mv, nil
}

// helper to create a new Game with necessary fields
func newTestGame(mover bot.Mover, delay time.Duration) *Game {
	return &Game{
		g:        chess.NewGame(),
		Watchers: make(map[chan []byte]struct{}),
		Human:    chess.White,
		bot:      mover,
		botDelay: delay,
	}
}

func waitForTurn(t *testing.T, g *Game, turn string) GameState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := g.State()
		if st.Turn == turn && !st.BotPending {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s to move", turn)
	return GameState{}
}

func TestMakeMoveValid(t *testing.T) {
	g := newTestGame(&scripted{}, time.Hour)
	defer g.Stop()
	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("expected move to be valid, got error: %v", err)
	}
	if st := g.State(); !st.BotPending || st.Message != "" {
		t.Fatalf("expected pending bot reply and empty message, got %+v", st)
	}
}

func TestMakeMoveInvalid(t *testing.T) {
	g := newTestGame(&scripted{}, time.Hour)
	err := g.MakeMove("e2e5")
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	st := g.State()
	if st.Message != MsgInvalidMove || st.FEN != startFEN || st.BotPending {
		t.Fatalf("illegal move changed state: %+v", st)
	}
}

func TestMakeMoveNotYourTurn(t *testing.T) {
	g := newTestGame(&scripted{}, time.Hour)
	defer g.Stop()
	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := g.MakeMove("d2d4"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestBotReplies(t *testing.T) {
	g := newTestGame(&scripted{moves: []string{"e7e5"}}, time.Millisecond)
	ch := make(chan []byte, 4)
	g.AddWatcher(ch)

	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	st := waitForTurn(t, g, "w")
	if len(st.UCI) != 2 || st.UCI[1] != "e7e5" {
		t.Fatalf("expected bot reply e7e5, got %v", st.UCI)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected watchers to be notified of the bot move")
	}
}

func TestScholarsMateEndsGame(t *testing.T) {
	g := newTestGame(&scripted{moves: []string{"e7e5", "b8c6", "g8f6"}}, time.Millisecond)
	for _, mv := range []string{"e2e4", "d1h5", "f1c4"} {
		if err := g.MakeMove(mv); err != nil {
			t.Fatalf("move %s: %v", mv, err)
		}
		waitForTurn(t, g, "w")
	}
	if err := g.MakeMove("h5f7"); err != nil {
		t.Fatalf("mating move: %v", err)
	}
	st := g.State()
	if st.Message != MsgCheckmate || !st.GameOver || st.BotPending {
		t.Fatalf("expected checkmate without pending reply, got %+v", st)
	}
	if err := g.MakeMove("a2a3"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
}

func TestBotWithoutMovesReportsGameOver(t *testing.T) {
	g := newTestGame(&scripted{}, time.Millisecond)
	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for g.State().BotPending && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if msg := g.State().Message; msg != MsgGameOver {
		t.Fatalf("expected %q, got %q", MsgGameOver, msg)
	}
}

func TestResetCancelsPendingBotMove(t *testing.T) {
	g := newTestGame(&scripted{moves: []string{"e7e5"}}, 20*time.Millisecond)
	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	g.Reset()
	time.Sleep(60 * time.Millisecond)

	st := g.State()
	if st.FEN != startFEN || st.BotPending || len(st.UCI) != 0 || st.Message != "" {
		t.Fatalf("expected fresh game after reset, got %+v", st)
	}
}

func TestMoveRequestToUCI(t *testing.T) {
	cases := map[string]MoveRequest{
		"e2e4":  {From: "e2", To: "e4"},
		"a7a8n": {From: "a7", To: "a8", Promotion: "N"},
		"g1f3":  {UCI: " G1F3 ", From: "e2", To: "e4"},
	}
	for want, req := range cases {
		if got := req.ToUCI(); got != want {
			t.Errorf("ToUCI(%+v) = %q, want %q", req, got, want)
		}
	}
}

// failing always errors, like a crashed engine.
type failing struct{}

func (failing) Move(context.Context, string) (string, error) {
	return "", errors.New("engine crashed")
}

func TestFailingBotHandsTurnBack(t *testing.T) {
	g := newTestGame(failing{}, time.Millisecond)
	if err := g.MakeMove("e2e4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	st := waitForTurn(t, g, "w")
	if len(st.UCI) != 2 || st.Message != MsgBotFailed {
		t.Fatalf("expected a fallback reply with %q, got %+v", MsgBotFailed, st)
	}
	if err := g.MakeMove("d2d4"); err != nil {
		t.Fatalf("human should be able to move again, got %v", err)
	}
}

func TestIllegalBotMoveIsReplaced(t *testing.T) {
	g := newTestGame(&scripted{moves: []string{"e2e4"}}, time.Millisecond)
	if err := g.MakeMove("d2d4"); err != nil {
		t.Fatalf("move: %v", err)
	}
	st := waitForTurn(t, g, "w")
	if len(st.UCI) != 2 || st.UCI[1] == "e2e4" || st.Message != MsgBotFailed {
		t.Fatalf("expected illegal bot move to be replaced, got %+v", st)
	}
}
