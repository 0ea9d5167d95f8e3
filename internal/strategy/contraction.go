package strategy

import "math"

// Contraction is one pullback from a local high to the following local low.
type Contraction struct {
	HighIndex int
	LowIndex  int
	High      float64
	Low       float64
	Depth     float64 // percent, rounded to 2 decimals
}

// Contractions pairs each local low with the nearest earlier local high,
// walking back from the most recent extrema. The result is most-recent-first.
// Pairs whose high is zero are skipped.
func Contractions(highs, lows []float64, ex Extrema) []Contraction {
	var out []Contraction
	i, j := len(ex.Lows)-1, len(ex.Highs)-1
	for i >= 0 && j >= 0 {
		li, hj := ex.Lows[i], ex.Highs[j]
		if li <= hj {
			j--
			continue
		}
		h, l := highs[hj], lows[li]
		if h != 0 {
			out = append(out, Contraction{
				HighIndex: hj,
				LowIndex:  li,
				High:      h,
				Low:       l,
				Depth:     round2((h - l) / h * 100),
			})
		}
		i--
		j--
	}
	return out
}

// ValidRun counts contractions from the most recent one backwards while each
// older depth is strictly larger than the one after it.
func ValidRun(seq []Contraction) int {
	prev := 0.0
	n := 0
	for _, c := range seq {
		if c.Depth <= prev {
			break
		}
		n++
		prev = c.Depth
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
