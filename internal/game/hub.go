package game

import (
	"time"

	"github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"sharpchess/internal/bot"
)

// NewHub creates a new game hub with cleanup goroutine. newBot builds the
// opponent of each new game.
func NewHub(newBot func() bot.Mover) *Hub {
	if newBot == nil {
		newBot = func() bot.Mover { return bot.NewRandom(time.Now().UnixNano()) }
	}
	h := &Hub{Games: make(map[string]*Game), NewBot: newBot, BotDelay: BotDelay}
	// cleanup goroutine
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			h.cleanup(time.Now())
		}
	}()
	return h
}

func (h *Hub) cleanup(now time.Time) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	for id, g := range h.Games {
		g.Mu.Lock()
		idle := now.Sub(g.LastSeen) > 24*time.Hour
		g.Mu.Unlock()
		if idle {
			g.Stop()
			delete(h.Games, id)
		}
	}
}

// Create starts a new game under a fresh id.
func (h *Hub) Create() (string, *Game) {
	id := uuid.NewString()
	return id, h.Get(id)
}

// Get retrieves an existing game or creates a new one
func (h *Hub) Get(id string) *Game {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if g, ok := h.Games[id]; ok {
		return g
	}
	ng := &Game{
		g:        chess.NewGame(),
		Watchers: make(map[chan []byte]struct{}),
		LastSeen: time.Now(),
		Human:    chess.White,
		bot:      h.NewBot(),
		botDelay: h.BotDelay,
	}
	h.Games[id] = ng
	return ng
}

// Lookup returns an existing game.
func (h *Hub) Lookup(id string) (*Game, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	g, ok := h.Games[id]
	return g, ok
}
