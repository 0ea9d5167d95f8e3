package signal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"VCPSentinel/internal/calculator"
	"VCPSentinel/internal/model"
	"VCPSentinel/internal/series"
	"VCPSentinel/internal/strategy"
)

// ErrOutOfOrder is returned for a bar not strictly newer than the last one.
var ErrOutOfOrder = errors.New("bar out of order")

// Engine owns the bar window and signal state of one symbol. It is not safe
// for concurrent use; run one engine per symbol.
type Engine struct {
	symbol   string
	params   strategy.Params
	settings Settings
	window   *series.Window
	machine  *Machine
	lastDate time.Time
	newID    func() string
}

// NewEngine validates params and settings and returns an Armed engine.
func NewEngine(symbol string, p strategy.Params, s Settings) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	e := &Engine{
		symbol:   symbol,
		params:   p,
		settings: s,
		machine:  NewMachine(s),
		newID:    uuid.NewString,
	}
	e.window = series.NewWindow(max(p.LookbackPeriod, e.MinHistory()))
	return e, nil
}

func (e *Engine) Symbol() string { return e.symbol }

// MinHistory is the number of bars required before any signal.
func (e *Engine) MinHistory() int {
	return max(e.params.MinHistory(), e.settings.EMASellPeriod+1)
}

// Restore applies a persisted state record.
func (e *Engine) Restore(s model.SymbolState) {
	e.machine.Restore(s)
}

// State returns the persistable state of the engine.
func (e *Engine) State() model.SymbolState {
	price, date := e.machine.Entry()
	return model.SymbolState{
		Symbol:     e.symbol,
		State:      e.machine.State(),
		LastDate:   e.lastDate,
		EntryPrice: price,
		EntryDate:  date,
	}
}

// LastDate is the date of the newest bar seen.
func (e *Engine) LastDate() time.Time { return e.lastDate }

// Prime appends a bar without evaluating it.
func (e *Engine) Prime(bar model.Bar) error {
	if err := e.accept(bar); err != nil {
		return err
	}
	e.window.Append(bar)
	return nil
}

// Process appends bar, scores the window and steps the signal machine.
func (e *Engine) Process(bar model.Bar) (model.Output, error) {
	if err := e.accept(bar); err != nil {
		return model.Output{}, err
	}
	e.window.Append(bar)

	out := model.Output{Date: bar.Date, RSRating: bar.RSRating}
	bars, err := e.window.Last(e.window.Len())
	if err != nil || len(bars) < e.MinHistory() {
		out.State = e.machine.State()
		return out, nil
	}

	r := strategy.Evaluate(bars, e.params)
	out.Ready = r.Ready
	out.Stage2Pass = r.Stage2.Pass()
	out.IsPattern = r.IsPattern()
	out.Progress = r.Progress()
	out.ContractionCount = r.ValidCount
	out.MaxContractionPct = r.MaxContraction
	out.MinContractionPct = r.MinContraction
	out.WeeksOfContraction = r.Weeks
	out.RSRating = r.RSRating

	if t, ok := e.machine.Step(bar, r, e.emaPair(bars)); ok {
		price := t.Price
		ev := model.Event{
			ID:     e.newID(),
			Date:   bar.Date,
			Symbol: e.symbol,
			Kind:   t.Kind,
			Price:  price,
		}
		switch t.Kind {
		case model.EventBuy:
			out.BuySignal = &price
			ev.Description = buyDescription(r)
		case model.EventSell:
			out.SellSignal = &price
			ev.Description = fmt.Sprintf("close %.2f below EMA%d", price, e.settings.EMASellPeriod)
		}
		out.Events = append(out.Events, ev)
	}
	out.State = e.machine.State()
	return out, nil
}

// Run processes bars in order and collects every output and event.
func (e *Engine) Run(bars []model.Bar) ([]model.Output, []model.Event, error) {
	outs := make([]model.Output, 0, len(bars))
	var events []model.Event
	for _, b := range bars {
		out, err := e.Process(b)
		if err != nil {
			return outs, events, fmt.Errorf("%s %s: %w", e.symbol, b.Date.Format("2006-01-02"), err)
		}
		outs = append(outs, out)
		events = append(events, out.Events...)
	}
	return outs, events, nil
}

func (e *Engine) accept(bar model.Bar) error {
	if !e.lastDate.IsZero() && !bar.Date.After(e.lastDate) {
		return fmt.Errorf("%s after %s: %w", bar.Date.Format("2006-01-02"), e.lastDate.Format("2006-01-02"), ErrOutOfOrder)
	}
	e.lastDate = bar.Date
	return nil
}

func (e *Engine) emaPair(bars []model.Bar) EMAPair {
	closes := model.Closes(bars)
	n := len(closes)
	if n < e.settings.EMASellPeriod+1 {
		return EMAPair{}
	}
	ema, err := calculator.EMASeries(closes, e.settings.EMASellPeriod)
	if err != nil {
		return EMAPair{}
	}
	return EMAPair{
		PrevClose: closes[n-2],
		PrevEMA:   ema[n-2],
		Close:     closes[n-1],
		EMA:       ema[n-1],
		Valid:     true,
	}
}

func buyDescription(r strategy.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "VCP: %d contractions, max=%.2f%%, min=%.2f%%, %.1f weeks", r.ValidCount, r.MaxContraction, r.MinContraction, r.Weeks)
	if r.RSRating != nil {
		fmt.Fprintf(&b, ", RS=%.2f", *r.RSRating)
	}
	if !r.IsPattern() {
		fmt.Fprintf(&b, ", progress=%.2f", r.Progress())
	}
	return b.String()
}
