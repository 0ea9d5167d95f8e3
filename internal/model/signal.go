package model

import "time"

// SignalState is the per-symbol position of the buy/sell machine.
type SignalState string

const (
	StateArmed   SignalState = "ARMED"
	StateHolding SignalState = "HOLDING"
)

// EventKind distinguishes buy and sell events.
type EventKind string

const (
	EventBuy  EventKind = "buy"
	EventSell EventKind = "sell"
)

// Event is one emitted trade signal.
type Event struct {
	ID          string
	Date        time.Time
	Symbol      string
	Kind        EventKind
	Price       float64
	Description string
}

// Output is the per-bar result of a symbol engine.
type Output struct {
	Date               time.Time
	Ready              bool
	Stage2Pass         bool
	IsPattern          bool
	Progress           float64
	BuySignal          *float64
	SellSignal         *float64
	ContractionCount   int
	MaxContractionPct  float64
	MinContractionPct  float64
	WeeksOfContraction float64
	RSRating           *float64
	State              SignalState
	Events             []Event
}

// SymbolState is the persisted signal state of one tracked symbol.
type SymbolState struct {
	Symbol     string      `json:"symbol"`
	State      SignalState `json:"state"`
	LastDate   time.Time   `json:"last_date"`
	EntryPrice float64     `json:"entry_price,omitempty"`
	EntryDate  time.Time   `json:"entry_date,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
