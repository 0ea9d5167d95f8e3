// Package scanner runs the VCP signal engine over a universe of symbols.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"VCPSentinel/internal/collector"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/recorder"
	"VCPSentinel/internal/rsrating"
	"VCPSentinel/internal/signal"
	"VCPSentinel/internal/state"
	"VCPSentinel/internal/strategy"
)

// SymbolResult is the outcome of one symbol in a scan.
type SymbolResult struct {
	Symbol    string
	Close     float64
	Output    *model.Output // latest evaluated bar, nil when nothing was evaluated
	Events    []model.Event
	State     model.SignalState
	Processed int // bars stepped through the machine
	Err       error
}

// Report summarizes a scan run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []SymbolResult // sorted by symbol
}

// Events returns every event of the run in symbol order.
func (r *Report) Events() []model.Event {
	var out []model.Event
	for _, res := range r.Results {
		out = append(out, res.Events...)
	}
	return out
}

// Failed counts symbols that errored.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Scanner evaluates symbols independently, one engine per symbol.
type Scanner struct {
	Collector *collector.Collector
	Store     state.Store
	Recorder  recorder.Recorder
	Params    strategy.Params
	Settings  signal.Settings
	Weights   rsrating.Weights
	Workers   int

	// Universe is rated alongside the scanned symbols, so a scan of a few
	// symbols still gets percentiles against the full list.
	Universe []string
	// MinRated is the fewest rated symbols ratings are stamped for;
	// zero means rsrating.DefaultMinUniverse.
	MinRated int
}

type fetched struct {
	series *model.PriceSeries
	err    error
}

// Scan fetches and evaluates symbols. Per-symbol failures are reported in
// the result and never abort the others.
func (s *Scanner) Scan(ctx context.Context, symbols []string) (*Report, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to scan")
	}
	rep := &Report{RunID: uuid.NewString(), Started: time.Now()}
	log.Printf("[INFO] scan %s started: %d symbols", rep.RunID, len(symbols))

	bench, err := s.Collector.LoadBenchmark()
	if err != nil {
		log.Printf("[WARN] scan %s: %v, relative-strength slope will fail", rep.RunID, err)
	}

	data := make([]fetched, len(symbols))
	s.each(len(symbols), func(i int) {
		ps, err := s.Collector.Collect(symbols[i], bench)
		data[i] = fetched{series: ps, err: err}
	})

	if s.Params.RequireRSRating {
		peers := s.collectPeers(symbols)
		if n := attachRatings(data, peers, s.Weights, s.minRated()); n < s.minRated() {
			log.Printf("[WARN] scan %s: only %d symbols rated, need %d, ratings left unset", rep.RunID, n, s.minRated())
		}
	}

	rep.Results = make([]SymbolResult, len(symbols))
	s.each(len(symbols), func(i int) {
		res := SymbolResult{Symbol: symbols[i]}
		switch {
		case ctx.Err() != nil:
			res.Err = ctx.Err()
		case data[i].err != nil:
			res.Err = data[i].err
		default:
			res = s.evaluate(ctx, data[i].series)
		}
		if res.Err != nil {
			log.Printf("[ERROR] scan %s: %v", symbols[i], res.Err)
		}
		s.record(rep.RunID, &res)
		rep.Results[i] = res
	})

	sort.Slice(rep.Results, func(i, j int) bool { return rep.Results[i].Symbol < rep.Results[j].Symbol })
	rep.Finished = time.Now()
	log.Printf("[INFO] scan %s finished in %s: %d events, %d failed",
		rep.RunID, rep.Finished.Sub(rep.Started).Round(time.Millisecond), len(rep.Events()), rep.Failed())
	return rep, nil
}

// each runs fn for 0..n-1 on at most Workers goroutines. fn runs for every
// index, so a cancelled run still fills each result slot.
func (s *Scanner) each(n int, fn func(i int)) {
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// evaluate warm-starts an engine from stored state: bars up to the stored
// last date only refill the window, newer bars are stepped. A symbol seen
// for the first time steps only its latest bar.
func (s *Scanner) evaluate(ctx context.Context, ps *model.PriceSeries) SymbolResult {
	res := SymbolResult{Symbol: ps.Symbol}
	eng, err := signal.NewEngine(ps.Symbol, s.Params, s.Settings)
	if err != nil {
		res.Err = err
		return res
	}
	bars := ps.Bars
	res.Close = bars[len(bars)-1].Close

	stored, ok, err := s.Store.Load(ctx, ps.Symbol)
	if err != nil {
		res.Err = fmt.Errorf("load state: %w", err)
		return res
	}
	split := len(bars) - 1
	if ok {
		eng.Restore(stored)
		split = sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(stored.LastDate) })
	}

	for _, b := range bars[:split] {
		if err := eng.Prime(b); err != nil {
			if s.skip(ps.Symbol, err) {
				continue
			}
			res.Err = err
			return res
		}
	}
	for _, b := range bars[split:] {
		out, err := eng.Process(b)
		if err != nil {
			if s.skip(ps.Symbol, err) {
				continue
			}
			res.Err = err
			return res
		}
		res.Events = append(res.Events, out.Events...)
		res.Processed++
		res.Output = &out
	}
	res.State = eng.State().State

	if res.Processed > 0 {
		if err := s.Store.Save(ctx, eng.State()); err != nil {
			res.Err = fmt.Errorf("save state: %w", err)
		}
	}
	return res
}

// skip reports whether err only rejects one bar, logging it when so.
func (s *Scanner) skip(symbol string, err error) bool {
	if !errors.Is(err, signal.ErrOutOfOrder) {
		return false
	}
	log.Printf("[WARN] %s: skipping bar: %v", symbol, err)
	return true
}

func (s *Scanner) record(runID string, res *SymbolResult) {
	for i := range res.Events {
		if err := s.Recorder.RecordEvent(&res.Events[i]); err != nil {
			log.Printf("[ERROR] record event %s: %v", res.Events[i].ID, err)
		}
	}
	snap := &recorder.ScanSnapshot{RunID: runID, Symbol: res.Symbol, Close: res.Close, State: res.State}
	if o := res.Output; o != nil {
		snap.Date = o.Date
		snap.Ready = o.Ready
		snap.Stage2Pass = o.Stage2Pass
		snap.IsPattern = o.IsPattern
		snap.Progress = o.Progress
		snap.ContractionCount = o.ContractionCount
		snap.MaxContractionPct = o.MaxContractionPct
		snap.MinContractionPct = o.MinContractionPct
		snap.WeeksOfContraction = o.WeeksOfContraction
		snap.RSRating = o.RSRating
	}
	if res.Err != nil {
		snap.Error = res.Err.Error()
	}
	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		log.Printf("[ERROR] record snapshot %s: %v", res.Symbol, err)
	}
}

func (s *Scanner) minRated() int {
	if s.MinRated <= 0 {
		return rsrating.DefaultMinUniverse
	}
	return s.MinRated
}

// collectPeers fetches the universe symbols that are not being scanned.
func (s *Scanner) collectPeers(symbols []string) []fetched {
	seen := make(map[string]bool, len(symbols)+len(s.Universe))
	for _, sym := range symbols {
		seen[sym] = true
	}
	var extra []string
	for _, sym := range s.Universe {
		if !seen[sym] {
			seen[sym] = true
			extra = append(extra, sym)
		}
	}
	peers := make([]fetched, len(extra))
	s.each(len(extra), func(i int) {
		ps, err := s.Collector.Collect(extra[i], nil)
		if err != nil {
			log.Printf("[WARN] rating peer %s: %v", extra[i], err)
		}
		peers[i] = fetched{series: ps, err: err}
	})
	return peers
}

// attachRatings rates the scanned symbols together with peers and stamps
// each scanned symbol's latest bar when it carries no rating of its own.
// Nothing is stamped when fewer than minRated symbols could be rated. It
// returns the number of rated symbols.
func attachRatings(data, peers []fetched, w rsrating.Weights, minRated int) int {
	closes := make(map[string][]float64, len(data)+len(peers))
	for _, d := range append(append([]fetched(nil), data...), peers...) {
		if d.err == nil && d.series != nil {
			closes[d.series.Symbol] = model.Closes(d.series.Bars)
		}
	}
	rated := rsrating.Rate(closes, w)
	if len(rated) < minRated {
		return len(rated)
	}
	ratings := rsrating.Lookup(rated)
	for _, d := range data {
		if d.err != nil || d.series == nil || len(d.series.Bars) == 0 {
			continue
		}
		last := &d.series.Bars[len(d.series.Bars)-1]
		if r, ok := ratings[d.series.Symbol]; ok && last.RSRating == nil {
			last.RSRating = model.Float(r)
		}
	}
	return len(rated)
}
