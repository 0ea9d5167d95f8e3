package rsrating

import (
	"math"
	"testing"
)

func ramp(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func TestScore(t *testing.T) {
	flat := make([]float64, 260)
	for i := range flat {
		flat[i] = 50
	}
	s, ok := Score(flat, DefaultWeights())
	if !ok || s != 0 {
		t.Errorf("expected zero score for flat closes, got %.4f ok=%v", s, ok)
	}

	c := make([]float64, 252)
	for i := range c {
		c[i] = 100
	}
	c[len(c)-1] = 110
	s, ok = Score(c, DefaultWeights())
	if !ok || math.Abs(s-0.1) > 1e-12 {
		t.Errorf("expected 0.1 for a uniform 10%% gain, got %.6f", s)
	}

	if _, ok := Score(c[:251], DefaultWeights()); ok {
		t.Error("expected short history to be skipped")
	}
	c[0] = 0
	if _, ok := Score(c, DefaultWeights()); ok {
		t.Error("expected zero reference close to be skipped")
	}
}

func TestRate(t *testing.T) {
	universe := map[string][]float64{
		"AAA":   ramp(300, 10, 40),
		"BBB":   ramp(300, 10, 20),
		"CCC":   ramp(300, 20, 10),
		"DDD":   ramp(300, 10, 20),
		"SHORT": ramp(100, 10, 100),
	}
	got := Rate(universe, DefaultWeights())
	if len(got) != 4 {
		t.Fatalf("expected 4 rated symbols, got %d", len(got))
	}
	want := map[string]float64{"AAA": 100, "BBB": 62.5, "DDD": 62.5, "CCC": 25}
	for _, r := range got {
		if r.Rating != want[r.Symbol] {
			t.Errorf("%s: expected %.2f, got %.2f", r.Symbol, want[r.Symbol], r.Rating)
		}
	}
	if got[0].Symbol != "AAA" || got[len(got)-1].Symbol != "CCC" {
		t.Errorf("expected descending order, got %+v", got)
	}
	if _, ok := Lookup(got)["SHORT"]; ok {
		t.Error("expected short history to be unrated")
	}
}

func TestRate_Empty(t *testing.T) {
	if got := Rate(nil, DefaultWeights()); len(got) != 0 {
		t.Errorf("expected no ratings, got %+v", got)
	}
}

func TestRate_Rounding(t *testing.T) {
	universe := map[string][]float64{
		"A": ramp(260, 10, 11),
		"B": ramp(260, 10, 12),
		"C": ramp(260, 10, 13),
	}
	got := Lookup(Rate(universe, DefaultWeights()))
	if got["A"] != 33.33 || got["B"] != 66.67 || got["C"] != 100 {
		t.Errorf("unexpected ratings %+v", got)
	}
}
