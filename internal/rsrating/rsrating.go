// Package rsrating ranks a universe of symbols by weighted trailing return.
package rsrating

import (
	"math"
	"sort"
)

// MinCloses is the history a symbol needs to be rated.
const MinCloses = 252

// DefaultMinUniverse is the fewest rated symbols percentiles are assigned
// over. A smaller universe leaves every rating unset.
const DefaultMinUniverse = 5

var horizons = [4]int{63, 126, 189, 252}

// Weights apply to the 3, 6, 9 and 12 month returns.
type Weights struct {
	ThreeMonth  float64 `yaml:"weight_3m"`
	SixMonth    float64 `yaml:"weight_6m"`
	NineMonth   float64 `yaml:"weight_9m"`
	TwelveMonth float64 `yaml:"weight_12m"`
}

// DefaultWeights favours the most recent quarter.
func DefaultWeights() Weights {
	return Weights{ThreeMonth: 0.4, SixMonth: 0.2, NineMonth: 0.2, TwelveMonth: 0.2}
}

// Rating is the score and percentile rating of one symbol.
type Rating struct {
	Symbol string
	Score  float64
	Rating float64
}

// Score returns the weighted trailing return of closes. It reports false
// when the history is too short or a reference close is not positive.
func Score(closes []float64, w Weights) (float64, bool) {
	n := len(closes)
	if n < MinCloses {
		return 0, false
	}
	current := closes[n-1]
	weights := [4]float64{w.ThreeMonth, w.SixMonth, w.NineMonth, w.TwelveMonth}
	var score float64
	for i, h := range horizons {
		base := closes[n-h]
		if base <= 0 || math.IsNaN(base) {
			return 0, false
		}
		score += weights[i] * (current - base) / base
	}
	return score, true
}

// Rate scores every symbol with enough history and assigns percentile ratings
// in (0, 100], ties sharing their average rank. The result is sorted by
// rating, highest first.
func Rate(closes map[string][]float64, w Weights) []Rating {
	out := make([]Rating, 0, len(closes))
	for sym, c := range closes {
		if s, ok := Score(c, w); ok {
			out = append(out, Rating{Symbol: sym, Score: s})
		}
	}
	if len(out) == 0 {
		return out
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	n := float64(len(out))
	for i := 0; i < len(out); {
		j := i
		for j+1 < len(out) && out[j+1].Score == out[i].Score {
			j++
		}
		// ranks are 1-based; the tie group i..j shares the mean rank
		avg := float64(i+j+2) / 2
		pct := math.Round(avg/n*100*100) / 100
		for k := i; k <= j; k++ {
			out[k].Rating = pct
		}
		i = j + 1
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}

// Lookup maps Rate output by symbol.
func Lookup(ratings []Rating) map[string]float64 {
	m := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		m[r.Symbol] = r.Rating
	}
	return m
}
