package strategy

import "VCPSentinel/internal/calculator"

// VolumeDryUp reports whether the short volume average is strictly below the
// long one at the latest bar.
func VolumeDryUp(volumes []float64, short, long int) bool {
	s, err := calculator.SMA(volumes, short)
	if err != nil {
		return false
	}
	l, err := calculator.SMA(volumes, long)
	if err != nil {
		return false
	}
	return s < l
}
