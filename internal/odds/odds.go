// Package odds derives display percentages from the raw per-option price
// weights returned by the Policast contract's getMarketOdds view. The
// contract computes prices; this package only normalizes them for display.
package odds

import (
	"math"
	"math/big"
)

// Normalize converts an ordered sequence of raw price weights into
// percentages aligned with the input. When every weight is zero (a market
// with no trades yet) each option gets an even split. Percentages are
// rounded to 2 decimal places independently, so they need not sum to
// exactly 100 — acceptable display-only drift.
func Normalize(raw []*big.Int) []float64 {
	if len(raw) == 0 {
		return nil
	}

	sum := new(big.Int)
	for _, w := range raw {
		if w != nil {
			sum.Add(sum, w)
		}
	}

	out := make([]float64, len(raw))
	if sum.Sign() == 0 {
		split := round2(100 / float64(len(raw)))
		for i := range out {
			out[i] = split
		}
		return out
	}

	sumF := new(big.Float).SetInt(sum)
	for i, w := range raw {
		if w == nil || w.Sign() == 0 {
			continue
		}
		frac := new(big.Float).Quo(new(big.Float).SetInt(w), sumF)
		pct, _ := new(big.Float).Mul(frac, big.NewFloat(100)).Float64()
		out[i] = round2(pct)
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
