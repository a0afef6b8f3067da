package client

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"sharpchess/internal/analysis"
)

// Panel is the text rendering of the analysis side panel. Pending flags
// take precedence over values; nil values render placeholders.
type Panel struct {
	FEN        string
	Evaluation *int
	Sharpness  *float64
	BestLines  []analysis.BestLine

	Evaluating       bool
	CalculatingSharp bool
	LoadingBestLines bool
}

// Pawns formats a centipawn score as pawns without trailing zeros.
func Pawns(cp int) string {
	return strconv.FormatFloat(float64(cp)/100, 'f', -1, 64)
}

// Render writes the panel to w.
func (p Panel) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Evaluation\n")
	switch {
	case p.Evaluating:
		b.WriteString("  Evaluating...\n")
	case p.Evaluation != nil:
		fmt.Fprintf(&b, "  Current position: %s pawns\n", Pawns(*p.Evaluation))
	default:
		b.WriteString("  No evaluation available\n")
	}

	b.WriteString("Sharpness\n")
	switch {
	case p.CalculatingSharp:
		b.WriteString("  Calculating sharpness...\n")
	case p.Sharpness != nil:
		fmt.Fprintf(&b, "  Position sharpness: %.4f\n", *p.Sharpness)
	default:
		b.WriteString("  No sharpness data available\n")
	}

	b.WriteString("Best Lines\n")
	switch {
	case p.LoadingBestLines:
		b.WriteString("  Loading best lines...\n")
	case len(p.BestLines) > 0:
		for i, l := range p.BestLines {
			fmt.Fprintf(&b, "  Line %d:\n", i+1)
			fmt.Fprintf(&b, "    Sharpness: %.4f\n", l.Sharpness)
			fmt.Fprintf(&b, "    Score: %s pawns\n", Pawns(l.Score))
			fmt.Fprintf(&b, "    Moves: %s\n", l.Moves)
		}
	default:
		b.WriteString("  No best lines available\n")
	}

	if p.FEN != "" {
		b.WriteString("Current Position (FEN)\n")
		fmt.Fprintf(&b, "  %s\n", p.FEN)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
