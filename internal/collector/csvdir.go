package collector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"VCPSentinel/internal/ingest"
	"VCPSentinel/internal/model"
)

// CSVDirFetcher reads {Dir}/{SYMBOL}.csv files in the ingest layout.
type CSVDirFetcher struct {
	Dir string
}

func NewCSVDirFetcher(dir string) *CSVDirFetcher { return &CSVDirFetcher{Dir: dir} }

func (f *CSVDirFetcher) Name() string { return "csv" }

func (f *CSVDirFetcher) FetchDailyBars(symbol string, count int) ([]model.Bar, error) {
	bars, err := ingest.ReadFile(filepath.Join(f.Dir, symbol+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("csv %s: %w", symbol, ErrNoData)
	}
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("csv %s: %w", symbol, ErrNoData)
	}
	return tail(bars, count), nil
}
