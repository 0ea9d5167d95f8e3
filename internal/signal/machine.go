// Package signal turns the per-bar VCP score stream of one symbol into buy
// and sell events.
package signal

import (
	"errors"
	"fmt"
	"time"

	"VCPSentinel/internal/model"
	"VCPSentinel/internal/strategy"
)

// Settings configures the buy/sell machine.
type Settings struct {
	ProgressThreshold float64 `yaml:"progress_threshold"`
	EMASellPeriod     int     `yaml:"ema_sell_period"`
}

// LooseThreshold is the progress threshold of the loose preset.
const LooseThreshold = 0.34

// DefaultSettings requires every criterion and exits on an EMA5 down-cross.
func DefaultSettings() Settings {
	return Settings{ProgressThreshold: 1.0, EMASellPeriod: 5}
}

// PresetSettings returns the machine settings that go with a strategy preset.
func PresetSettings(name string) (Settings, error) {
	s := DefaultSettings()
	switch name {
	case "", strategy.PresetBasic, strategy.PresetPlus:
	case strategy.PresetLoose:
		s.ProgressThreshold = LooseThreshold
	default:
		return Settings{}, fmt.Errorf("unknown preset %q", name)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.ProgressThreshold <= 0 || s.ProgressThreshold > 1 {
		return errors.New("progress_threshold must be in (0, 1]")
	}
	if s.EMASellPeriod <= 0 {
		return errors.New("ema_sell_period must be positive")
	}
	return nil
}

// EMAPair carries the close and trailing EMA at the previous and current bar.
type EMAPair struct {
	PrevClose float64
	PrevEMA   float64
	Close     float64
	EMA       float64
	Valid     bool
}

// CrossedDown reports a downside cross of close through the EMA.
func (e EMAPair) CrossedDown() bool {
	return e.Valid && e.PrevClose >= e.PrevEMA && e.Close < e.EMA
}

// Transition is a state change emitted by Step.
type Transition struct {
	Kind  model.EventKind
	Price float64
}

// Machine is the Armed/Holding state of one symbol.
type Machine struct {
	settings   Settings
	state      model.SignalState
	entryPrice float64
	entryDate  time.Time
}

// NewMachine returns an Armed machine.
func NewMachine(s Settings) *Machine {
	return &Machine{settings: s, state: model.StateArmed}
}

func (m *Machine) State() model.SignalState { return m.state }

// Entry returns the price and date of the open position, if any.
func (m *Machine) Entry() (float64, time.Time) { return m.entryPrice, m.entryDate }

// Restore sets the state from a persisted record. Unknown states arm the machine.
func (m *Machine) Restore(s model.SymbolState) {
	if s.State == model.StateHolding {
		m.state = model.StateHolding
		m.entryPrice = s.EntryPrice
		m.entryDate = s.EntryDate
		return
	}
	m.state = model.StateArmed
	m.entryPrice = 0
	m.entryDate = time.Time{}
}

// Step advances the machine by one bar. While Holding the score is ignored
// and only the EMA exit is checked.
func (m *Machine) Step(bar model.Bar, r strategy.Result, ema EMAPair) (Transition, bool) {
	switch m.state {
	case model.StateArmed:
		if r.Ready && r.Progress() >= m.settings.ProgressThreshold {
			m.state = model.StateHolding
			m.entryPrice = bar.Close
			m.entryDate = bar.Date
			return Transition{Kind: model.EventBuy, Price: bar.Close}, true
		}
	case model.StateHolding:
		if ema.CrossedDown() {
			m.state = model.StateArmed
			m.entryPrice = 0
			m.entryDate = time.Time{}
			return Transition{Kind: model.EventSell, Price: bar.Close}, true
		}
	}
	return Transition{}, false
}
