// Package synth builds deterministic bar series from piecewise-linear price
// paths, for demos and tests.
package synth

import (
	"time"

	"VCPSentinel/internal/model"
)

// Vertex is a turning point of a price path.
type Vertex struct {
	Index int
	Price float64
}

// Start is the date of the first generated bar.
var Start = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

// Path interpolates linearly between vertices. The first vertex must have
// index 0; the result has last.Index+1 points.
func Path(verts []Vertex) []float64 {
	if len(verts) == 0 {
		return nil
	}
	out := []float64{verts[0].Price}
	for k := 1; k < len(verts); k++ {
		a, b := verts[k-1], verts[k]
		m := b.Index - a.Index
		for s := 1; s <= m; s++ {
			out = append(out, a.Price+(b.Price-a.Price)*float64(s)/float64(m))
		}
	}
	return out
}

// Bars turns a price path into bars with open=high=low=close and volume
// declining linearly from volStart to volEnd. Dates advance on weekdays.
func Bars(prices []float64, volStart, volEnd float64) []model.Bar {
	bars := make([]model.Bar, len(prices))
	date := Start
	for i, p := range prices {
		vol := volStart
		if len(prices) > 1 {
			vol = volStart + (volEnd-volStart)*float64(i)/float64(len(prices)-1)
		}
		bars[i] = model.Bar{Date: date, Open: p, High: p, Low: p, Close: p, Volume: vol}
		date = nextWeekday(date)
	}
	return bars
}

// VCPVertices is a 300-bar path: a long advance from 20 to 100 followed by
// three pullbacks of 40%, 25% and 12% and a recovery toward the pivot at 92.
func VCPVertices() []Vertex {
	return []Vertex{
		{0, 20}, {190, 100}, {205, 60}, {225, 96}, {240, 72}, {255, 92}, {265, 80.96}, {299, 91},
	}
}

// VCPSample returns the VCPVertices path with volume drying up from
// 2,000,000 to 800,000.
func VCPSample() []model.Bar {
	return Bars(Path(VCPVertices()), 2_000_000, 800_000)
}

func nextWeekday(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
