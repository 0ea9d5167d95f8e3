package strategy

import (
	"VCPSentinel/internal/calculator"
	"VCPSentinel/internal/model"
)

// Stage2Check breaks the Stage-2 trend template into its conditions.
type Stage2Check struct {
	AboveMAs   bool // close above the fast, medium and slow averages
	Stacked    bool // fast > medium > slow
	SlowRising bool // slow average higher than TrendPeriod bars ago
	AboveLow   bool // close > 1.3 × week-window low
	NearHigh   bool // close > 0.75 × week-window high
	RSSlope    bool // close/benchmark regression slope >= 0, true when not required
}

// Pass reports whether every condition holds.
func (c Stage2Check) Pass() bool {
	return c.AboveMAs && c.Stacked && c.SlowRising && c.AboveLow && c.NearHigh && c.RSSlope
}

// CheckStage2 evaluates the trend template at the latest bar. Insufficient
// history fails every condition.
func CheckStage2(bars []model.Bar, p Params) Stage2Check {
	var c Stage2Check
	n := len(bars)
	if n == 0 || n < p.SlowMAPeriod+p.TrendPeriod || n < p.MediumMAPeriod || n < p.FastMAPeriod {
		return c
	}
	closes := model.Closes(bars)
	fast, err := calculator.SMA(closes, p.FastMAPeriod)
	if err != nil {
		return c
	}
	medium, err := calculator.SMA(closes, p.MediumMAPeriod)
	if err != nil {
		return c
	}
	slowSeries, err := calculator.SMASeries(closes, p.SlowMAPeriod)
	if err != nil {
		return c
	}
	slow := slowSeries[n-1]
	slowBefore := slowSeries[n-1-p.TrendPeriod]

	high, low, err := calculator.WeekRange(model.Highs(bars), model.Lows(bars), p.WeekWindow)
	if err != nil {
		return c
	}

	close := closes[n-1]
	c.AboveMAs = close > fast && close > medium && close > slow
	c.Stacked = fast > medium && medium > slow
	c.SlowRising = slow-slowBefore > 0
	c.AboveLow = close > low*1.3
	c.NearHigh = close > high*0.75
	c.RSSlope = !p.RequireRSSlope || RSSlopeOK(bars, p.RSTrendPeriod)
	return c
}

// RSSlopeOK reports whether the relative-strength line close/benchmark has a
// non-negative regression slope over the last period bars. A missing or
// non-positive benchmark value in that range fails the check.
func RSSlopeOK(bars []model.Bar, period int) bool {
	if period <= 0 || len(bars) < period {
		return false
	}
	line := make([]float64, 0, period)
	for _, b := range bars[len(bars)-period:] {
		if b.BenchmarkClose == nil || *b.BenchmarkClose <= 0 {
			return false
		}
		line = append(line, b.Close / *b.BenchmarkClose)
	}
	return calculator.Slope(line) >= 0
}
