package engine

import (
	"math"
	"sort"
)

// The statistical primitives are total: every input, including empty and
// all-non-finite lists, has a defined finite output.

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Percent returns part/total as a percentage, 0 when total is not positive.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

func Median(vals []float64) float64 {
	finite := finiteSubset(vals)
	n := len(finite)
	if n == 0 {
		return 0
	}
	sort.Float64s(finite)
	if n%2 == 1 {
		return finite[n/2]
	}
	return (finite[n/2-1] + finite[n/2]) / 2
}

func Average(vals []float64) float64 {
	finite := finiteSubset(vals)
	if len(finite) == 0 {
		return 0
	}
	var sum float64
	for _, v := range finite {
		sum += v
	}
	return sum / float64(len(finite))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finiteSubset(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
