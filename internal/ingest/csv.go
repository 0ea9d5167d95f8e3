// Package ingest reads daily bars from CSV files.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"VCPSentinel/internal/model"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing column")

// ErrNonFinite is returned for NaN or infinite numeric cells.
var ErrNonFinite = errors.New("non-finite value")

var required = []string{"date", "open", "high", "low", "close", "volume"}

var (
	benchmarkAliases = []string{"benchmark_close", "spx_close", "index_close"}
	ratingAliases    = []string{"rs_rating", "rs_score"}
)

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "2006/01/02", "20060102"}

// ReadFile opens path and reads its bars.
func ReadFile(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bars, nil
}

// Read parses a CSV with a header row into bars sorted by date. Column names
// match case-insensitively. Empty optional cells are left nil. When a date
// repeats, the row that comes last in the file wins.
func Read(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := make(map[string]int, len(required))
	for _, name := range required {
		i, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		idx[name] = i
	}
	benchCol := lookup(cols, benchmarkAliases)
	ratingCol := lookup(cols, ratingAliases)

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b, err := parseRecord(rec, idx, benchCol, ratingCol)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return model.DedupeByDate(bars), nil
}

func parseRecord(rec []string, idx map[string]int, benchCol, ratingCol int) (model.Bar, error) {
	var b model.Bar
	d, err := parseDate(field(rec, idx["date"]))
	if err != nil {
		return b, err
	}
	b.Date = d
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"close", &b.Close},
		{"volume", &b.Volume},
	} {
		v, err := parseNumber(field(rec, idx[f.name]))
		if err != nil {
			return b, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	if b.BenchmarkClose, err = optional(rec, benchCol); err != nil {
		return b, fmt.Errorf("benchmark: %w", err)
	}
	if b.RSRating, err = optional(rec, ratingCol); err != nil {
		return b, fmt.Errorf("rs rating: %w", err)
	}
	return b, nil
}

func lookup(cols map[string]int, aliases []string) int {
	for _, a := range aliases {
		if i, ok := cols[a]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func optional(rec []string, i int) (*float64, error) {
	s := field(rec, i)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
		return nil, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseNumber parses a finite float. NaN and infinities are rejected so they
// never reach the extrema and average comparisons.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNonFinite, s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Write renders bars in the same layout Read accepts.
func Write(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "open", "high", "low", "close", "volume", "benchmark_close", "rs_rating"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Date.Format("2006-01-02"),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
			formatOptional(b.BenchmarkClose),
			formatOptional(b.RSRating),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
