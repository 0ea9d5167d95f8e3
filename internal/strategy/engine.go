package strategy

import "VCPSentinel/internal/model"

// Criterion names, in scoring order.
const (
	CriterionStage2       = "stage2"
	CriterionCount        = "contraction_count_in_range"
	CriterionMaxDepth     = "max_depth_within_limit"
	CriterionMinDepth     = "min_depth_within_limit"
	CriterionDuration     = "duration_sufficient"
	CriterionVolumeDryUp  = "volume_dry_up"
	CriterionRSRating     = "rs_rating_ok"
	CriterionNotBrokenOut = "not_yet_broken_out"
)

const barsPerWeek = 5

// Criterion is one named pattern condition.
type Criterion struct {
	Name string
	Pass bool
}

// Result is the VCP evaluation of one window.
type Result struct {
	Ready          bool
	Criteria       []Criterion
	Stage2         Stage2Check
	Extrema        Extrema
	Contractions   []Contraction // most recent first
	ValidCount     int
	MaxContraction float64
	MinContraction float64
	Weeks          float64
	PivotIndex     int
	PivotHigh      float64
	RSRating       *float64
}

// Progress is the fraction of satisfied criteria, 0 when not ready.
func (r Result) Progress() float64 {
	if !r.Ready || len(r.Criteria) == 0 {
		return 0
	}
	n := 0
	for _, c := range r.Criteria {
		if c.Pass {
			n++
		}
	}
	return float64(n) / float64(len(r.Criteria))
}

// IsPattern reports whether every criterion holds.
func (r Result) IsPattern() bool {
	if !r.Ready || len(r.Criteria) == 0 {
		return false
	}
	for _, c := range r.Criteria {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Passed returns the outcome of the named criterion.
func (r Result) Passed(name string) bool {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c.Pass
		}
	}
	return false
}

// Evaluate scores the most recent LookbackPeriod bars. It is a pure function
// of its inputs.
func Evaluate(bars []model.Bar, p Params) Result {
	if p.LookbackPeriod > 0 && len(bars) > p.LookbackPeriod {
		bars = bars[len(bars)-p.LookbackPeriod:]
	}
	r := Result{PivotIndex: -1}
	n := len(bars)
	if n == 0 {
		return r
	}
	r.RSRating = bars[n-1].RSRating
	if n < max(p.SlowMAPeriod+p.TrendPeriod, p.ExtremaOrder*2+1) {
		return r
	}
	r.Ready = true

	highs := model.Highs(bars)
	lows := model.Lows(bars)
	r.Stage2 = CheckStage2(bars, p)

	r.Extrema = FindExtrema(highs, lows, p.ExtremaOrder)
	// a contraction sequence needs at least two swings of each type
	if len(r.Extrema.Highs) >= 2 && len(r.Extrema.Lows) >= 2 {
		r.Contractions = Contractions(highs, lows, r.Extrema)
	}
	r.ValidCount = ValidRun(r.Contractions)
	if r.ValidCount > 0 {
		oldest := r.Contractions[r.ValidCount-1]
		r.MaxContraction = oldest.Depth
		r.MinContraction = r.Contractions[0].Depth
		r.Weeks = float64(n-oldest.HighIndex) / barsPerWeek
	}
	if pivot := r.Extrema.Pivot(); pivot >= 0 {
		r.PivotIndex = pivot
		r.PivotHigh = highs[pivot]
	}

	hasRun := r.ValidCount > 0
	r.Criteria = []Criterion{
		{CriterionStage2, r.Stage2.Pass()},
		{CriterionCount, p.MinContractions <= r.ValidCount && r.ValidCount <= p.MaxContractions},
		{CriterionMaxDepth, hasRun && r.MaxContraction <= p.MaxContractionDepth},
		{CriterionMinDepth, hasRun && r.MinContraction <= p.MinContractionDepth},
		{CriterionDuration, hasRun && r.Weeks >= p.MinWeeks},
		{CriterionVolumeDryUp, VolumeDryUp(model.Volumes(bars), p.VolShortPeriod, p.VolLongPeriod)},
	}
	if p.RequireRSRating {
		r.Criteria = append(r.Criteria, Criterion{CriterionRSRating, RSRatingOK(r.RSRating, p)})
	}
	if p.RequireConsolidation {
		broke := r.PivotIndex < 0 || bars[n-1].Close >= r.PivotHigh
		r.Criteria = append(r.Criteria, Criterion{CriterionNotBrokenOut, !broke})
	}
	return r
}
