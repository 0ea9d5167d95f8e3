package model

import "time"

// Bar represents a single daily candlestick. BenchmarkClose and RSRating are
// optional inputs used by the relative-strength criteria.
type Bar struct {
	Date           time.Time
	Open           float64
	High           float64
	Low            float64
	Close          float64
	Volume         float64
	BenchmarkClose *float64
	RSRating       *float64
}

// PriceSeries holds the raw bars fetched for one symbol.
type PriceSeries struct {
	Symbol    string
	Bars      []Bar
	FetchedAt time.Time
}

// Closes extracts the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high prices of bars.
func Highs(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low prices of bars.
func Lows(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volumes of bars.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// DedupeByDate keeps the last bar of each date in date-sorted bars. It
// reuses the backing array of bars.
func DedupeByDate(bars []Bar) []Bar {
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// Float returns a pointer to v, for optional bar fields.
func Float(v float64) *float64 { return &v }
