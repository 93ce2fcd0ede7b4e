package visualization

import (
	"gonum.org/v1/gonum/stat"
)

// Smooth returns the trailing moving average of values over window points.
// The first points average over what is available.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	for i := range values {
		start := max(0, i-window+1)
		out[i] = stat.Mean(values[start:i+1], nil)
	}
	return out
}
