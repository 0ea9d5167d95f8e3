package collector

import (
	"errors"

	"VCPSentinel/internal/model"
)

// ErrNoData is returned when a source has no bars for a symbol.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching daily bars.
type Fetcher interface {
	// FetchDailyBars returns up to count of the most recent daily bars, oldest first.
	FetchDailyBars(symbol string, count int) ([]model.Bar, error)
	Name() string
}

func tail(bars []model.Bar, count int) []model.Bar {
	if count > 0 && len(bars) > count {
		return bars[len(bars)-count:]
	}
	return bars
}
