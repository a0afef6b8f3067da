package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corentings/chess/v2"

	"sharpchess/internal/bot"
	"sharpchess/internal/logging"
	"sharpchess/pkg/utils"
)

// botThinkTimeout bounds a single bot reply.
const botThinkTimeout = 30 * time.Second

// fallbackBot answers for a bot that failed or played an illegal move.
var fallbackBot = bot.NewRandom(time.Now().UnixNano())

// Touch updates the last seen timestamp for a game
func (g *Game) Touch() {
	g.Mu.Lock()
	g.LastSeen = time.Now()
	g.Mu.Unlock()
}

// MovesUCI returns the list of moves in UCI notation
func (g *Game) MovesUCI() []string {
	ms := g.g.Moves()
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.String())
	}
	return out
}

// FEN returns the current position.
func (g *Game) FEN() string {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.g.Position().String()
}

// StateLocked returns the current game state (must be called with lock held)
func (g *Game) StateLocked() GameState {
	pos := g.g.Position()
	status := ""
	if g.g.Outcome() != chess.NoOutcome {
		status = fmt.Sprintf("%s by %s", g.g.Outcome().String(), g.g.Method().String())
	}
	return GameState{
		Kind:       "state",
		FEN:        pos.String(),
		Turn:       pos.Turn().String(),
		Status:     status,
		Message:    g.Message,
		PGN:        g.g.String(),
		UCI:        g.MovesUCI(),
		GameOver:   g.g.Outcome() != chess.NoOutcome,
		BotPending: g.timer != nil,
		LastSeen:   g.LastSeen.UnixMilli(),
		Watchers:   len(g.Watchers),
	}
}

// State returns the current game state.
func (g *Game) State() GameState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.StateLocked()
}

// Broadcast sends the current game state to all watchers
func (g *Game) Broadcast() {
	g.Mu.Lock()
	state := g.StateLocked()
	data, _ := json.Marshal(state)
	for ch := range g.Watchers {
		select {
		case ch <- data:
		default:
		}
	}
	g.Mu.Unlock()
}

// MakeMove plays the human's move and, when the game goes on, schedules the
// bot's reply. Illegal moves leave the position unchanged.
func (g *Game) MakeMove(uci string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.g.Outcome() != chess.NoOutcome {
		g.Message = outcomeMessage(g.g)
		return ErrGameOver
	}
	pos := g.g.Position()
	if pos.Turn() != g.Human {
		return ErrNotYourTurn
	}

	uci = AppendPromotionIfPawn(pos, strings.ToLower(strings.TrimSpace(uci)))
	if _, err := utils.PlayUCI(g.g, uci); err != nil {
		g.Message = MsgInvalidMove
		return err
	}
	claimDraw(g.g)
	g.Message = outcomeMessage(g.g)
	if g.g.Outcome() == chess.NoOutcome {
		g.scheduleBotLocked()
	}
	return nil
}

func (g *Game) scheduleBotLocked() {
	if g.timer != nil {
		g.timer.Stop()
	}
	gen := g.gen
	g.timer = time.AfterFunc(g.botDelay, func() { g.playBot(gen) })
}

// playBot makes the bot's move unless the game was reset since the reply
// was scheduled.
func (g *Game) playBot(gen int) {
	g.Mu.Lock()
	if gen != g.gen {
		g.Mu.Unlock()
		return
	}
	if g.g.Outcome() != chess.NoOutcome {
		g.timer = nil
		g.Message = outcomeMessage(g.g)
		g.Mu.Unlock()
		g.Broadcast()
		return
	}
	fen := g.g.Position().String()
	mover := g.bot
	g.Mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), botThinkTimeout)
	mv, err := mover.Move(ctx, fen)
	cancel()

	g.Mu.Lock()
	if gen != g.gen || g.g.Position().String() != fen {
		g.Mu.Unlock()
		return
	}
	g.timer = nil
	if errors.Is(err, bot.ErrNoMoves) {
		g.Message = MsgGameOver
		g.Mu.Unlock()
		g.Broadcast()
		return
	}
	fellBack := false
	if err == nil {
		if _, err = utils.PlayUCI(g.g, mv); err != nil {
			logging.Logger.Error().Err(err).Str("move", mv).Str("fen", fen).Msg("bot played illegal move")
		}
	} else {
		logging.Logger.Error().Err(err).Str("fen", fen).Msg("bot move")
	}
	if err != nil {
		// The bot must not keep the turn: play a random legal move instead.
		mv, err = g.fallbackLocked(fen)
		if err != nil {
			logging.Logger.Error().Err(err).Str("fen", fen).Msg("fallback move")
			g.Message = MsgBotFailed
		}
		fellBack = err == nil
	}
	if err == nil {
		claimDraw(g.g)
		g.Message = outcomeMessage(g.g)
		if fellBack && g.Message == "" {
			g.Message = MsgBotFailed
		}
		logging.Debugf("bot played %s", mv)
	}
	g.Mu.Unlock()
	g.Broadcast()
}

// fallbackLocked plays a random legal move for the bot in fen. The caller
// holds the lock.
func (g *Game) fallbackLocked(fen string) (string, error) {
	mv, err := fallbackBot.Move(context.Background(), fen)
	if err != nil {
		return "", err
	}
	if _, err := utils.PlayUCI(g.g, mv); err != nil {
		return "", err
	}
	return mv, nil
}

// Reset resets the game to the starting position and drops any pending
// bot reply.
func (g *Game) Reset() {
	g.Mu.Lock()
	g.stopLocked()
	g.g = chess.NewGame()
	g.Message = ""
	pos := g.g.Position()
	logging.Debugf("Game reset - FEN: %s, Castling: %s", pos.String(), pos.CastleRights())
	g.Mu.Unlock()
}

// Stop cancels a pending bot reply.
func (g *Game) Stop() {
	g.Mu.Lock()
	g.stopLocked()
	g.Mu.Unlock()
}

func (g *Game) stopLocked() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

// AddWatcher adds a new watcher channel
func (g *Game) AddWatcher(ch chan []byte) {
	g.Mu.Lock()
	g.Watchers[ch] = struct{}{}
	g.Mu.Unlock()
}

// RemoveWatcher removes a watcher channel
func (g *Game) RemoveWatcher(ch chan []byte) {
	g.Mu.Lock()
	delete(g.Watchers, ch)
	g.Mu.Unlock()
}

// ToUCI returns the move in UCI notation.
func (m MoveRequest) ToUCI() string {
	if s := strings.TrimSpace(m.UCI); s != "" {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.TrimSpace(m.From) + strings.TrimSpace(m.To) + strings.TrimSpace(m.Promotion))
}

// AppendPromotionIfPawn promotes to a queen when a pawn move to the last
// rank names no piece.
func AppendPromotionIfPawn(pos *chess.Position, uci string) string {
	if !isPromotionToLastRank(uci) {
		return uci
	}
	sq, ok := parseSquare(uci[:2])
	if !ok {
		return uci
	}
	if pos.Board().Piece(sq).Type() != chess.Pawn {
		return uci
	}
	return uci + "q"
}

// isPromotionToLastRank checks if a 4-character UCI move is a promotion to the last rank
func isPromotionToLastRank(uci string) bool {
	if len(uci) != 4 {
		return false
	}
	to := uci[2:]
	return to[1] == '1' || to[1] == '8'
}

func parseSquare(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	return chess.Square(rank*8 + file), true
}

// claimDraw ends the game on draws the library only offers as claims.
func claimDraw(g *chess.Game) {
	if g.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range g.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = g.Draw(m)
			return
		}
	}
}

func outcomeMessage(g *chess.Game) string {
	switch {
	case g.Outcome() == chess.NoOutcome:
		return ""
	case g.Method() == chess.Checkmate:
		return MsgCheckmate
	case g.Outcome() == chess.Draw:
		return MsgDraw
	}
	return MsgGameOver
}
