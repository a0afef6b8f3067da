package game

import (
	"errors"
	"sync"
	"time"

	"github.com/corentings/chess/v2"

	"sharpchess/internal/bot"
	"sharpchess/pkg/utils"
)

// BotDelay is the pause before the bot answers a move.
const BotDelay = 300 * time.Millisecond

// Messages shown to the player.
const (
	MsgCheckmate   = "Checkmate!"
	MsgDraw        = "Draw!"
	MsgGameOver    = "Game Over!"
	MsgInvalidMove = "Invalid move"
	MsgBotFailed   = "Bot error, a random move was played"
)

var (
	ErrIllegalMove = utils.ErrIllegalMove
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
)

// Hub manages all active games
type Hub struct {
	Mu       sync.Mutex
	Games    map[string]*Game
	NewBot   func() bot.Mover
	BotDelay time.Duration
}

// Game is a single game between a human (white) and a bot, with its
// watchers and the bot's pending reply.
type Game struct {
	Mu       sync.Mutex
	g        *chess.Game
	Watchers map[chan []byte]struct{}
	LastSeen time.Time
	Human    chess.Color
	Message  string

	bot      bot.Mover
	botDelay time.Duration
	timer    *time.Timer
	gen      int
}

// MoveRequest represents a move request from a client. Either UCI or
// From/To (with optional Promotion) is set.
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
	UCI       string `json:"uci"`
}

// GameState represents the current state of a game
type GameState struct {
	Kind       string   `json:"kind"`
	FEN        string   `json:"fen"`
	Turn       string   `json:"turn"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	PGN        string   `json:"pgn"`
	UCI        []string `json:"uci"`
	GameOver   bool     `json:"gameOver"`
	BotPending bool     `json:"botPending"`
	LastSeen   int64    `json:"lastSeen"`
	Watchers   int      `json:"watchers"`
}
