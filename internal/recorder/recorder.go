package recorder

import (
	"time"

	"VCPSentinel/internal/model"
)

// ScanSnapshot is the per-symbol outcome of one scan run.
type ScanSnapshot struct {
	RunID              string
	Symbol             string
	Date               time.Time // date of the latest bar
	Close              float64
	Ready              bool
	Stage2Pass         bool
	IsPattern          bool
	Progress           float64
	ContractionCount   int
	MaxContractionPct  float64
	MinContractionPct  float64
	WeeksOfContraction float64
	RSRating           *float64
	State              model.SignalState
	Error              string // set when the symbol failed
}

// Recorder persists signal history for analysis.
type Recorder interface {
	RecordEvent(evt *model.Event) error
	RecordSnapshot(snap *ScanSnapshot) error
	RecentEvents(limit int) ([]model.Event, error)
	Close() error
}
