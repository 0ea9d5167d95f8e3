package strategy

import (
	"errors"
	"fmt"
)

// Preset names.
const (
	PresetBasic = "basic"
	PresetPlus  = "plus"
	PresetLoose = "loose"
)

// Params configures the VCP scorer. One parameter set covers every variant;
// the Require* flags switch on the extended criteria.
type Params struct {
	FastMAPeriod   int `yaml:"fast_ma_period"`
	MediumMAPeriod int `yaml:"medium_ma_period"`
	SlowMAPeriod   int `yaml:"slow_ma_period"`
	TrendPeriod    int `yaml:"trend_period"`
	RSTrendPeriod  int `yaml:"rs_trend_period"`
	WeekWindow     int `yaml:"week_window"`
	ExtremaOrder   int `yaml:"extrema_order"`

	MinContractions     int     `yaml:"min_contractions"`
	MaxContractions     int     `yaml:"max_contractions"`
	MaxContractionDepth float64 `yaml:"max_contraction_depth"`
	MinContractionDepth float64 `yaml:"min_contraction_depth"`
	MinWeeks            float64 `yaml:"min_weeks"`
	LookbackPeriod      int     `yaml:"lookback_period"`

	VolShortPeriod int `yaml:"vol_short_period"`
	VolLongPeriod  int `yaml:"vol_long_period"`

	RequireRSSlope       bool    `yaml:"require_rs_slope"`
	RequireRSRating      bool    `yaml:"require_rs_rating"`
	MinRSRating          float64 `yaml:"min_rs_rating"`
	RequireConsolidation bool    `yaml:"require_consolidation"`
}

// DefaultParams returns the basic VCP parameters.
func DefaultParams() Params {
	return Params{
		FastMAPeriod:        50,
		MediumMAPeriod:      150,
		SlowMAPeriod:        200,
		TrendPeriod:         20,
		RSTrendPeriod:       20,
		WeekWindow:          252,
		ExtremaOrder:        10,
		MinContractions:     2,
		MaxContractions:     4,
		MaxContractionDepth: 50,
		MinContractionDepth: 15,
		MinWeeks:            2,
		LookbackPeriod:      252,
		VolShortPeriod:      5,
		VolLongPeriod:       30,
		MinRSRating:         70,
	}
}

// PlusParams returns the extended variant: longer lookback, RS slope and
// rating filters, and the not-yet-broken-out check.
func PlusParams() Params {
	p := DefaultParams()
	p.WeekWindow = 260
	p.LookbackPeriod = 520
	p.RequireRSSlope = true
	p.RequireRSRating = true
	p.RequireConsolidation = true
	return p
}

// PresetParams resolves a preset name. The loose preset shares the basic
// criteria and only lowers the signal threshold.
func PresetParams(name string) (Params, error) {
	switch name {
	case "", PresetBasic, PresetLoose:
		return DefaultParams(), nil
	case PresetPlus:
		return PlusParams(), nil
	default:
		return Params{}, fmt.Errorf("unknown preset %q", name)
	}
}

// MinHistory is the number of bars needed before the scorer can evaluate.
func (p Params) MinHistory() int {
	return max(p.SlowMAPeriod+p.TrendPeriod, p.ExtremaOrder*2+1, p.FastMAPeriod, p.MediumMAPeriod, p.VolLongPeriod)
}

// Validate checks that periods and bounds are usable.
func (p Params) Validate() error {
	periods := map[string]int{
		"fast_ma_period":   p.FastMAPeriod,
		"medium_ma_period": p.MediumMAPeriod,
		"slow_ma_period":   p.SlowMAPeriod,
		"trend_period":     p.TrendPeriod,
		"rs_trend_period":  p.RSTrendPeriod,
		"extrema_order":    p.ExtremaOrder,
		"lookback_period":  p.LookbackPeriod,
		"vol_short_period": p.VolShortPeriod,
		"vol_long_period":  p.VolLongPeriod,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if p.MinContractions > p.MaxContractions {
		return errors.New("min_contractions must not exceed max_contractions")
	}
	if p.LookbackPeriod < p.MinHistory() {
		return fmt.Errorf("lookback_period %d is shorter than the required history %d", p.LookbackPeriod, p.MinHistory())
	}
	return nil
}
