package collector

import (
	"fmt"
	"log"
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/synth"
)

// MockFetcher serves fixed series for development and testing. Symbols
// without an entry get the synthetic VCP sample.
type MockFetcher struct {
	Series map[string][]model.Bar
	Err    map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, count int) ([]model.Bar, error) {
	if err, ok := m.Err[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Series[symbol]; ok {
		return tail(append([]model.Bar(nil), bars...), count), nil
	}
	return tail(synth.VCPSample(), count), nil
}

// Benchmark maps dates to benchmark closes.
type Benchmark map[time.Time]float64

// NewBenchmark indexes bars by date.
func NewBenchmark(bars []model.Bar) Benchmark {
	b := make(Benchmark, len(bars))
	for _, bar := range bars {
		b[dateKey(bar.Date)] = bar.Close
	}
	return b
}

// Attach sets BenchmarkClose on bars that have none and a matching date.
// It returns the number of bars that carry a benchmark afterwards.
func (b Benchmark) Attach(bars []model.Bar) int {
	n := 0
	for i := range bars {
		if bars[i].BenchmarkClose == nil {
			if v, ok := b[dateKey(bars[i].Date)]; ok {
				bars[i].BenchmarkClose = model.Float(v)
			}
		}
		if bars[i].BenchmarkClose != nil {
			n++
		}
	}
	return n
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Collector fetches daily bars and aligns the benchmark onto them.
type Collector struct {
	Fetcher   Fetcher
	Benchmark string
	Count     int
}

// NewCollector creates a new Collector. An empty benchmark disables alignment.
func NewCollector(fetcher Fetcher, benchmark string, count int) *Collector {
	return &Collector{Fetcher: fetcher, Benchmark: benchmark, Count: count}
}

// LoadBenchmark fetches the benchmark series. It returns nil when no
// benchmark is configured.
func (c *Collector) LoadBenchmark() (Benchmark, error) {
	if c.Benchmark == "" {
		return nil, nil
	}
	bars, err := c.Fetcher.FetchDailyBars(c.Benchmark, c.Count)
	if err != nil {
		return nil, fmt.Errorf("fetch benchmark %s: %w", c.Benchmark, err)
	}
	return NewBenchmark(bars), nil
}

// Collect fetches one symbol and attaches bench when given.
func (c *Collector) Collect(symbol string, bench Benchmark) (*model.PriceSeries, error) {
	bars, err := c.Fetcher.FetchDailyBars(symbol, c.Count)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}
	if bench != nil {
		if n := bench.Attach(bars); n < len(bars) {
			log.Printf("[WARN] %s: benchmark missing on %d of %d bars", symbol, len(bars)-n, len(bars))
		}
	}
	return &model.PriceSeries{Symbol: symbol, Bars: bars, FetchedAt: time.Now()}, nil
}
