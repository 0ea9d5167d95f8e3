package series

import (
	"errors"
	"fmt"

	"VCPSentinel/internal/model"
)

// ErrInsufficientHistory is returned when fewer bars are buffered than requested.
var ErrInsufficientHistory = errors.New("insufficient history")

// Window is a capacity-bounded ring of bars in chronological order.
// Append is the only mutation; the oldest bar is evicted when full.
type Window struct {
	buf   []model.Bar
	cap   int
	len   int
	start int
}

// NewWindow creates a Window holding at most capacity bars.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{buf: make([]model.Bar, capacity), cap: capacity}
}

// Append adds the newest bar, evicting the oldest if over capacity.
func (w *Window) Append(b model.Bar) {
	if w.len < w.cap {
		w.buf[(w.start+w.len)%w.cap] = b
		w.len++
		return
	}
	w.buf[w.start] = b
	w.start = (w.start + 1) % w.cap
}

// Last returns a copy of the most recent n bars, oldest first.
func (w *Window) Last(n int) ([]model.Bar, error) {
	if n < 0 || n > w.len {
		return nil, fmt.Errorf("last %d bars, have %d: %w", n, w.len, ErrInsufficientHistory)
	}
	out := make([]model.Bar, n)
	offset := w.len - n
	for i := 0; i < n; i++ {
		out[i] = w.buf[(w.start+offset+i)%w.cap]
	}
	return out, nil
}

// Bars returns a copy of every buffered bar, oldest first.
func (w *Window) Bars() []model.Bar {
	out, _ := w.Last(w.len)
	return out
}

// Newest returns the most recently appended bar.
func (w *Window) Newest() (model.Bar, bool) {
	if w.len == 0 {
		return model.Bar{}, false
	}
	return w.buf[(w.start+w.len-1)%w.cap], true
}

func (w *Window) Len() int { return w.len }
func (w *Window) Cap() int { return w.cap }
