package engine

import (
	"strconv"
	"strings"
)

// ParseInfo parses a UCI "info" line. It reports false for lines that are
// not search results carrying both a score and a principal variation.
func ParseInfo(line string) (Line, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Line{}, false
	}
	out := Line{MultiPV: 1}
	hasScore := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "string":
			return Line{}, false
		case "depth":
			if v, ok := intAt(fields, i+1); ok {
				out.Depth = v
				i++
			}
		case "multipv":
			if v, ok := intAt(fields, i+1); ok {
				out.MultiPV = v
				i++
			}
		case "nodes":
			if i+1 < len(fields) {
				if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
					out.Nodes = v
				}
				i++
			}
		case "score":
			if i+2 >= len(fields) {
				return Line{}, false
			}
			v, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return Line{}, false
			}
			switch fields[i+1] {
			case "cp":
				out.Score = Score{CP: &v}
			case "mate":
				out.Score = Score{Mate: &v}
			default:
				return Line{}, false
			}
			hasScore = true
			i += 2
			if i+1 < len(fields) && (fields[i+1] == "lowerbound" || fields[i+1] == "upperbound") {
				i++
			}
		case "wdl":
			if i+3 >= len(fields) {
				return Line{}, false
			}
			w, err1 := strconv.Atoi(fields[i+1])
			d, err2 := strconv.Atoi(fields[i+2])
			l, err3 := strconv.Atoi(fields[i+3])
			if err1 != nil || err2 != nil || err3 != nil {
				return Line{}, false
			}
			out.WDL = &WDL{Win: w, Draw: d, Loss: l}
			i += 3
		case "pv":
			out.PV = append([]string(nil), fields[i+1:]...)
			i = len(fields)
		case "currmove", "currmovenumber", "seldepth", "time", "nps", "hashfull", "tbhits", "cpuload", "sbhits":
			i++
		}
	}
	if !hasScore || len(out.PV) == 0 {
		return Line{}, false
	}
	return out, true
}

// parseBestMove extracts the move and optional ponder move from a
// "bestmove" line.
func parseBestMove(line string) (best, ponder string) {
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		best = fields[1]
	}
	if len(fields) >= 4 && fields[2] == "ponder" {
		ponder = fields[3]
	}
	return best, ponder
}

func intAt(fields []string, i int) (int, bool) {
	if i >= len(fields) {
		return 0, false
	}
	v, err := strconv.Atoi(fields[i])
	return v, err == nil
}
