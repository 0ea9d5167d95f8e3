package strategy

// Extrema holds ascending indices of local highs and lows within a window.
type Extrema struct {
	Highs []int
	Lows  []int
}

// LocalHighs returns every index i, order <= i < len-order, whose value equals
// the maximum of values[i-order : i+order+1]. Tied positions are all reported.
func LocalHighs(values []float64, order int) []int {
	return localExtrema(values, order, func(v, best float64) bool { return v > best })
}

// LocalLows is the minimum counterpart of LocalHighs.
func LocalLows(values []float64, order int) []int {
	return localExtrema(values, order, func(v, best float64) bool { return v < best })
}

func localExtrema(values []float64, order int, better func(v, best float64) bool) []int {
	if order < 0 || len(values) < order*2+1 {
		return nil
	}
	var idx []int
	for i := order; i < len(values)-order; i++ {
		center := values[i]
		ok := true
		for j := i - order; j <= i+order; j++ {
			if better(values[j], center) {
				ok = false
				break
			}
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// Alternate merges raw highs and lows so the two types strictly alternate in
// time. A run of one type before the other appears collapses to its latest
// member; a bar that is both a high and a low is dropped. Without any highs
// or without any lows there is nothing to alternate and the result is empty.
func Alternate(highs, lows []int) Extrema {
	if len(highs) == 0 || len(lows) == 0 {
		return Extrema{}
	}
	type point struct {
		index int
		high  bool
	}
	var merged []point
	i, j := 0, 0
	for i < len(highs) || j < len(lows) {
		switch {
		case j >= len(lows) || (i < len(highs) && highs[i] < lows[j]):
			merged = append(merged, point{highs[i], true})
			i++
		case i >= len(highs) || lows[j] < highs[i]:
			merged = append(merged, point{lows[j], false})
			j++
		default:
			i++
			j++
		}
	}

	var run []point
	for _, p := range merged {
		if n := len(run); n > 0 && run[n-1].high == p.high {
			run[n-1] = p
			continue
		}
		run = append(run, p)
	}

	var ex Extrema
	for _, p := range run {
		if p.high {
			ex.Highs = append(ex.Highs, p.index)
		} else {
			ex.Lows = append(ex.Lows, p.index)
		}
	}
	return ex
}

// FindExtrema locates local highs on highs and local lows on lows, then
// reconciles them with Alternate.
func FindExtrema(highs, lows []float64, order int) Extrema {
	return Alternate(LocalHighs(highs, order), LocalLows(lows, order))
}

// Pivot returns the index of the most recent local high, or -1.
func (e Extrema) Pivot() int {
	if len(e.Highs) == 0 {
		return -1
	}
	return e.Highs[len(e.Highs)-1]
}
