package series

import (
	"errors"
	"testing"
	"time"

	"VCPSentinel/internal/model"
)

func bar(day int, close float64) model.Bar {
	return model.Bar{
		Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Close: close,
	}
}

func TestWindow_AppendEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 5; i++ {
		w.Append(bar(i, float64(i)))
	}
	if w.Len() != 3 {
		t.Fatalf("expected len 3, got %d", w.Len())
	}
	bars := w.Bars()
	for i, want := range []float64{2, 3, 4} {
		if bars[i].Close != want {
			t.Errorf("bar %d: expected close %.0f, got %.0f", i, want, bars[i].Close)
		}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			t.Errorf("bars not chronological at %d", i)
		}
	}
}

func TestWindow_Last(t *testing.T) {
	w := NewWindow(10)
	for i := 0; i < 4; i++ {
		w.Append(bar(i, float64(i)))
	}
	got, err := w.Last(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Close != 2 || got[1].Close != 3 {
		t.Errorf("unexpected last bars: %+v", got)
	}
	if _, err := w.Last(5); !errors.Is(err, ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestWindow_LastCopiesBars(t *testing.T) {
	w := NewWindow(2)
	w.Append(bar(0, 1))
	got, _ := w.Last(1)
	got[0].Close = 99
	if b, _ := w.Newest(); b.Close != 1 {
		t.Errorf("window mutated through Last result: close=%.0f", b.Close)
	}
}

func TestWindow_Newest(t *testing.T) {
	w := NewWindow(2)
	if _, ok := w.Newest(); ok {
		t.Fatal("expected no newest bar on empty window")
	}
	w.Append(bar(0, 1))
	w.Append(bar(1, 2))
	w.Append(bar(2, 3))
	b, ok := w.Newest()
	if !ok || b.Close != 3 {
		t.Errorf("expected newest close 3, got %.0f", b.Close)
	}
}
