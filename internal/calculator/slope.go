package calculator

import "github.com/markcheno/go-talib"

// Slope returns the least-squares slope of values over the whole slice.
// Fewer than two points give a slope of zero.
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	return talib.LinearRegSlope(values, n)[n-1]
}
