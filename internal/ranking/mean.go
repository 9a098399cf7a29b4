package ranking

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// missing marks an absent value in score columns.
var missing = math.NaN()

func isMissing(v float64) bool {
	return math.IsNaN(v)
}

// weightedMean averages the present values. An entry contributes only when
// its value is not missing and its weight is positive, so absent values
// leave both numerator and denominator untouched. A nil weights slice means
// equal weights. ok is false when nothing contributed.
func weightedMean(values, weights []float64) (mean float64, ok bool) {
	xs := make([]float64, 0, len(values))
	ws := make([]float64, 0, len(values))
	for i, v := range values {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if isMissing(v) || !(w > 0) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, w)
	}
	if len(xs) == 0 {
		return missing, false
	}
	return stat.Mean(xs, ws), true
}
