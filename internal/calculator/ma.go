package calculator

import (
	"errors"
	"fmt"

	"github.com/markcheno/go-talib"
)

// ErrNotEnoughData is returned when a series is shorter than the requested period.
var ErrNotEnoughData = errors.New("not enough data")

// SMASeries computes the simple moving average of values over period.
// Entries before the first full period are zero.
func SMASeries(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(values, period); err != nil {
		return nil, fmt.Errorf("sma(%d): %w", period, err)
	}
	if period == 1 {
		return append([]float64(nil), values...), nil
	}
	return talib.Sma(values, period), nil
}

// SMA returns the latest simple moving average of values over period.
func SMA(values []float64, period int) (float64, error) {
	s, err := SMASeries(values, period)
	if err != nil {
		return 0, err
	}
	return s[len(s)-1], nil
}

// EMASeries computes the exponential moving average of values, seeded with
// the SMA of the first period values. Entries before the seed are zero.
func EMASeries(values []float64, period int) ([]float64, error) {
	if err := checkPeriod(values, period); err != nil {
		return nil, fmt.Errorf("ema(%d): %w", period, err)
	}
	if period == 1 {
		return append([]float64(nil), values...), nil
	}
	return talib.Ema(values, period), nil
}

func checkPeriod(values []float64, period int) error {
	if period <= 0 {
		return errors.New("period must be positive")
	}
	if len(values) < period {
		return ErrNotEnoughData
	}
	return nil
}
