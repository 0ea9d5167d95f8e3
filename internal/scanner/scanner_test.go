package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"VCPSentinel/internal/collector"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/rsrating"
	"VCPSentinel/internal/signal"
	"VCPSentinel/internal/state"
	"VCPSentinel/internal/strategy"
	"VCPSentinel/internal/synth"
)

type memRecorder struct {
	mu        sync.Mutex
	events    []model.Event
	snapshots []recorder.ScanSnapshot
}

func (m *memRecorder) RecordEvent(e *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *memRecorder) RecordSnapshot(s *recorder.ScanSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *s)
	return nil
}

func (m *memRecorder) RecentEvents(int) ([]model.Event, error) { return m.events, nil }
func (m *memRecorder) Close() error                            { return nil }

func extend(bars []model.Bar, price float64, n int) []model.Bar {
	out := append([]model.Bar(nil), bars...)
	date := out[len(out)-1].Date
	for i := 0; i < n; i++ {
		date = date.AddDate(0, 0, 1)
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}
		out = append(out, model.Bar{Date: date, Open: price, High: price, Low: price, Close: price, Volume: 500_000})
	}
	return out
}

func newScanner(t *testing.T, fetcher *collector.MockFetcher) (*Scanner, *memRecorder) {
	t.Helper()
	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	rec := &memRecorder{}
	return &Scanner{
		Collector: collector.NewCollector(fetcher, "", 600),
		Store:     store,
		Recorder:  rec,
		Params:    strategy.DefaultParams(),
		Settings:  signal.DefaultSettings(),
		Weights:   rsrating.DefaultWeights(),
		Workers:   2,
	}, rec
}

func TestScan_BuyThenSellAcrossRuns(t *testing.T) {
	ctx := context.Background()
	full := extend(synth.VCPSample()[:293], 80, 1)
	fetcher := &collector.MockFetcher{Series: map[string][]model.Bar{"VCP": full[:293]}}
	s, rec := newScanner(t, fetcher)

	rep, err := s.Scan(ctx, []string{"VCP"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res := rep.Results[0]
	if res.Err != nil || res.Processed != 1 {
		t.Fatalf("expected one processed bar, got %+v", res)
	}
	if len(res.Events) != 1 || res.Events[0].Kind != model.EventBuy {
		t.Fatalf("expected a buy on the first scan, got %+v", res.Events)
	}
	if res.State != model.StateHolding || res.Output == nil || !res.Output.IsPattern {
		t.Errorf("expected holding after a full pattern, got %+v", res)
	}

	fetcher.Series["VCP"] = full
	rep, err = s.Scan(ctx, []string{"VCP"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res = rep.Results[0]
	if res.Processed != 1 || len(res.Events) != 1 || res.Events[0].Kind != model.EventSell {
		t.Fatalf("expected a sell on the new bar, got %+v", res)
	}
	stored, ok, _ := s.Store.Load(ctx, "VCP")
	if !ok || stored.State != model.StateArmed || !stored.LastDate.Equal(full[293].Date) {
		t.Errorf("unexpected stored state %+v", stored)
	}

	rep, err = s.Scan(ctx, []string{"VCP"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res := rep.Results[0]; res.Processed != 0 || len(res.Events) != 0 || res.State != model.StateArmed {
		t.Errorf("expected nothing new on a repeated scan, got %+v", res)
	}

	if len(rec.events) != 2 || len(rec.snapshots) != 3 {
		t.Errorf("expected 2 recorded events and 3 snapshots, got %d and %d", len(rec.events), len(rec.snapshots))
	}
}

func TestScan_RepeatedBarIsSkipped(t *testing.T) {
	sample := synth.VCPSample()[:293]
	bars := append([]model.Bar(nil), sample[:100]...)
	bars = append(bars, sample[99])
	bars = append(bars, sample[100:]...)
	fetcher := &collector.MockFetcher{Series: map[string][]model.Bar{"DUP": bars}}
	s, _ := newScanner(t, fetcher)

	rep, err := s.Scan(context.Background(), []string{"DUP"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	res := rep.Results[0]
	if res.Err != nil || res.Processed != 1 {
		t.Fatalf("expected the repeated bar to be skipped, got %+v", res)
	}
	if len(res.Events) != 1 || res.Events[0].Kind != model.EventBuy {
		t.Errorf("expected the same buy as the clean series, got %+v", res.Events)
	}
}

func TestScan_FailuresAreIsolated(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &collector.MockFetcher{
		Series: map[string][]model.Bar{"SHORT": synth.VCPSample()[:50]},
		Err:    map[string]error{"BAD": boom},
	}
	s, rec := newScanner(t, fetcher)
	rep, err := s.Scan(context.Background(), []string{"BAD", "SHORT", "VCP"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if rep.Failed() != 1 {
		t.Fatalf("expected one failure, got %d", rep.Failed())
	}
	bySymbol := map[string]SymbolResult{}
	for _, r := range rep.Results {
		bySymbol[r.Symbol] = r
	}
	if !errors.Is(bySymbol["BAD"].Err, boom) {
		t.Errorf("expected BAD to carry the fetch error, got %v", bySymbol["BAD"].Err)
	}
	if o := bySymbol["SHORT"].Output; o == nil || o.Ready || len(bySymbol["SHORT"].Events) != 0 {
		t.Errorf("expected SHORT to evaluate without a signal, got %+v", bySymbol["SHORT"])
	}
	if bySymbol["VCP"].Err != nil || bySymbol["VCP"].Output == nil || !bySymbol["VCP"].Output.Stage2Pass {
		t.Errorf("expected VCP in stage 2, got %+v", bySymbol["VCP"])
	}
	if len(rec.snapshots) != 3 {
		t.Errorf("expected a snapshot per symbol, got %d", len(rec.snapshots))
	}
	if _, err := s.Scan(context.Background(), nil); err == nil {
		t.Error("expected an empty universe to fail")
	}
}

func trendSeries(from, to float64) []model.Bar {
	return synth.Bars(synth.Path([]synth.Vertex{{Index: 0, Price: from}, {Index: 259, Price: to}}), 1, 1)
}

func TestAttachRatings(t *testing.T) {
	series := func(sym string, to float64, rating *float64) fetched {
		bars := trendSeries(10, to)
		bars[len(bars)-1].RSRating = rating
		return fetched{series: &model.PriceSeries{Symbol: sym, Bars: bars}}
	}
	data := []fetched{
		series("LOW", 11, nil),
		series("HIGH", 30, nil),
		series("OWN", 20, model.Float(55)),
		{err: errors.New("fetch failed")},
	}
	if n := attachRatings(data, nil, rsrating.DefaultWeights(), 3); n != 3 {
		t.Errorf("expected 3 rated symbols, got %d", n)
	}

	rating := func(i int) float64 {
		bars := data[i].series.Bars
		if r := bars[len(bars)-1].RSRating; r != nil {
			return *r
		}
		return -1
	}
	if rating(0) != 33.33 || rating(1) != 100 {
		t.Errorf("expected universe ratings 33.33 and 100, got %.2f and %.2f", rating(0), rating(1))
	}
	if rating(2) != 55 {
		t.Errorf("expected own rating to be kept, got %.2f", rating(2))
	}
}

func TestAttachRatings_SmallUniverseLeavesRatingUnset(t *testing.T) {
	loser := fetched{series: &model.PriceSeries{Symbol: "LOSER", Bars: trendSeries(30, 10)}}
	if n := attachRatings([]fetched{loser}, nil, rsrating.DefaultWeights(), rsrating.DefaultMinUniverse); n != 1 {
		t.Errorf("expected 1 rated symbol, got %d", n)
	}
	bars := loser.series.Bars
	if r := bars[len(bars)-1].RSRating; r != nil {
		t.Errorf("expected a lone symbol to stay unrated, got %.2f", *r)
	}
}

func TestScan_RatesAgainstUniverse(t *testing.T) {
	fetcher := &collector.MockFetcher{Series: map[string][]model.Bar{
		"LOSER": trendSeries(30, 10),
		"UP1":   trendSeries(10, 12),
		"UP2":   trendSeries(10, 15),
		"UP3":   trendSeries(10, 20),
		"UP4":   trendSeries(10, 30),
	}}
	s, _ := newScanner(t, fetcher)
	s.Params.RequireRSRating = true
	s.Universe = []string{"UP1", "UP2", "UP3", "UP4", "LOSER"}

	rep, err := s.Scan(context.Background(), []string{"LOSER"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(rep.Results) != 1 {
		t.Fatalf("expected only the scanned symbol in the report, got %d results", len(rep.Results))
	}
	o := rep.Results[0].Output
	if o == nil || o.RSRating == nil || *o.RSRating != 20 {
		t.Fatalf("expected LOSER rated 20 against the universe, got %+v", o)
	}

	alone, _ := newScanner(t, fetcher)
	alone.Params.RequireRSRating = true
	rep, err = alone.Scan(context.Background(), []string{"LOSER"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	o = rep.Results[0].Output
	if o == nil {
		t.Fatal("expected the latest bar to be evaluated")
	}
	if o.RSRating != nil {
		t.Errorf("expected no rating without a universe, got %.2f", *o.RSRating)
	}
}
