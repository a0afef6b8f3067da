package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ErrIllegalMove is returned by PlayUCI when the move is not legal in the
// game's current position.
var ErrIllegalMove = errors.New("illegal move")

// PlayUCI applies a UCI move (e.g. "e2e4", "e7e8q") to g. The move must be
// one of g.ValidMoves(); the game is left untouched otherwise. It returns
// the applied move.
func PlayUCI(g *chess.Game, uci string) (*chess.Move, error) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	if _, err := (chess.UCINotation{}).Decode(g.Position(), uci); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}
	for _, m := range g.ValidMoves() {
		if m.String() != uci {
			continue
		}
		mv := m
		if err := g.Move(&mv, nil); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
		}
		return &mv, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
}
