package analysis

import (
	"strconv"
	"strings"

	"github.com/corentings/chess/v2"

	"sharpchess/pkg/utils"
)

// BestLine is one candidate continuation as reported to clients.
type BestLine struct {
	Moves     string  `json:"moves"`
	Score     int     `json:"score"`
	Sharpness float64 `json:"sharpness"`
}

// ValidateFEN reports whether fen describes a position the rules library
// accepts.
func ValidateFEN(fen string) error {
	_, err := chess.FEN(fen)
	return err
}

// FormatLine renders a UCI principal variation from fen as numbered SAN,
// e.g. "1. e4 e5 2. Nf3". Moves after the first one the library rejects are
// dropped.
func FormatLine(fen string, pv []string) string {
	opt, err := chess.FEN(fen)
	if err != nil {
		return strings.Join(pv, " ")
	}
	g := chess.NewGame(opt)
	number := fullMoveNumber(fen)

	var b strings.Builder
	for i, s := range pv {
		pos := g.Position()
		mv, err := utils.PlayUCI(g, s)
		if err != nil {
			break
		}
		san := chess.AlgebraicNotation{}.Encode(pos, mv)

		white := pos.Turn() == chess.White
		switch {
		case white:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(number) + ". ")
		case i == 0:
			b.WriteString(strconv.Itoa(number) + "... ")
		default:
			b.WriteByte(' ')
		}
		b.WriteString(san)
		if !white {
			number++
		}
	}
	return b.String()
}

func fullMoveNumber(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
