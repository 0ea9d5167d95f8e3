package calculator

import (
	"errors"
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-3) > 1e-9 {
		t.Errorf("expected 3, got %f", got)
	}
	if _, err := SMA([]float64{1, 2}, 3); !errors.Is(err, ErrNotEnoughData) {
		t.Errorf("expected ErrNotEnoughData, got %v", err)
	}
	if _, err := SMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestSMASeries_ConstantIsExact(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 1_000_000
	}
	short, _ := SMA(values, 5)
	long, _ := SMA(values, 30)
	if short != long {
		t.Errorf("constant series SMAs differ: %f vs %f", short, long)
	}
}

func TestEMASeries_SeededWithSMA(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10}
	ema, err := EMASeries(values, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// seed = (2+4+6)/3 = 4, k = 0.5
	want := []float64{4, 6, 8}
	for i, w := range want {
		if math.Abs(ema[i+2]-w) > 1e-9 {
			t.Errorf("ema[%d]: expected %f, got %f", i+2, w, ema[i+2])
		}
	}
}

func TestWeekRange(t *testing.T) {
	highs := []float64{10, 30, 20, 15}
	lows := []float64{5, 25, 12, 11}
	h, l, err := WeekRange(highs, lows, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != 30 || l != 11 {
		t.Errorf("expected 30/11, got %.0f/%.0f", h, l)
	}
	// window larger than series falls back to the full series
	h, l, _ = WeekRange(highs, lows, 252)
	if h != 30 || l != 5 {
		t.Errorf("expected 30/5, got %.0f/%.0f", h, l)
	}
	if _, _, err := WeekRange(nil, nil, 3); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestSlope(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 1},
		{[]float64{4, 3, 2, 1}, -1},
		{[]float64{5, 5, 5}, 0},
		{[]float64{1, 3, 2, 4}, 0.8},
		{[]float64{0.50, 0.52, 0.51, 0.55, 0.56}, 0.015},
		{[]float64{7}, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := Slope(tt.values); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Slope(%v): expected %f, got %f", tt.values, tt.want, got)
		}
	}
}
