package analysis

import (
	"math"

	"sharpchess/internal/engine"
)

// Sharpness scores how double-edged a position is from its win/draw/loss
// expectation, using the LC0 sharpness formula. Balanced positions with few
// draws score high; one-sided or drawish positions score near zero.
func Sharpness(wdl engine.WDL) float64 {
	w := clamp(float64(wdl.Win)/1000, 0.0001, 0.9999)
	l := clamp(float64(wdl.Loss)/1000, 0.0001, 0.9999)
	denom := math.Log(1/w-1) + math.Log(1/l-1)
	// A zero draw probability puts the formula at its pole; treat it as
	// outside the domain rather than report float noise.
	if denom <= 1e-9 {
		return 0
	}
	s := math.Max(2/denom, 0)
	v := s * s * math.Min(w, l) * 4
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
