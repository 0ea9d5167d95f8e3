package calculator

import (
	"fmt"

	"github.com/markcheno/go-talib"
)

// WeekRange returns the highest high and lowest low over the most recent
// window bars. When fewer bars are available the whole series is used.
func WeekRange(highs, lows []float64, window int) (high, low float64, err error) {
	if len(highs) == 0 || len(highs) != len(lows) {
		return 0, 0, fmt.Errorf("week range: %w", ErrNotEnoughData)
	}
	if window <= 0 || window > len(highs) {
		window = len(highs)
	}
	n := len(highs)
	if window == 1 {
		return highs[n-1], lows[n-1], nil
	}
	high = talib.Max(highs, window)[n-1]
	low = talib.Min(lows, window)[n-1]
	return high, low, nil
}
