package ranking

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/onnwee/collegefit/internal/college"
)

// frame is a column-major view of the retained attributes. Every column is
// aligned with the candidate slice; missing entries are NaN.
type frame struct {
	attrs []college.Attribute
	cols  map[college.Attribute][]float64
}

func newFrame(records []college.Record, attrs []college.Attribute) *frame {
	f := &frame{
		attrs: make([]college.Attribute, 0, len(attrs)),
		cols:  make(map[college.Attribute][]float64, len(attrs)),
	}
	for _, a := range attrs {
		col := make([]float64, len(records))
		for i := range records {
			if v, ok := records[i].Value(a); ok {
				col[i] = v
			} else {
				col[i] = missing
			}
		}
		f.attrs = append(f.attrs, a)
		f.cols[a] = col
	}
	return f
}

// column returns the values for a, or nil when a is not in the frame.
func (f *frame) column(a college.Attribute) []float64 {
	return f.cols[a]
}

// present returns a sorted copy of the non-missing values in col.
func present(col []float64) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !isMissing(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// percentileBand returns the lower and upper empirical quantiles of the
// non-missing values. Order-statistic quantiles keep clipping idempotent:
// clipping never moves the order statistics the bounds were taken from.
func percentileBand(col []float64, lower, upper float64) (lo, hi float64, ok bool) {
	xs := present(col)
	if len(xs) == 0 {
		return 0, 0, false
	}
	lo = stat.Quantile(lower, stat.Empirical, xs, nil)
	hi = stat.Quantile(upper, stat.Empirical, xs, nil)
	return lo, hi, true
}

// winsorize clips col to its [lower, upper] percentile band. Missing values
// stay missing; a column with no data is returned unchanged.
func winsorize(col []float64, lower, upper float64) []float64 {
	out := make([]float64, len(col))
	copy(out, col)

	lo, hi, ok := percentileBand(col, lower, upper)
	if !ok {
		return out
	}
	for i, v := range out {
		if isMissing(v) {
			continue
		}
		if v < lo {
			out[i] = lo
		} else if v > hi {
			out[i] = hi
		}
	}
	return out
}

// median returns the middle of the non-missing values, averaging the two
// central order statistics for an even count.
func median(col []float64) (float64, bool) {
	xs := present(col)
	n := len(xs)
	if n == 0 {
		return missing, false
	}
	return (xs[(n-1)/2] + xs[n/2]) / 2, true
}

// impute replaces missing entries with the column median. A column with no
// data comes back unchanged, still entirely missing.
func impute(col []float64) []float64 {
	out := make([]float64, len(col))
	copy(out, col)

	m, ok := median(col)
	if !ok {
		return out
	}
	for i, v := range out {
		if isMissing(v) {
			out[i] = m
		}
	}
	return out
}

// minMaxScale maps a fully populated column onto [0, 1]. A constant column
// maps to 0.
func minMaxScale(col []float64) []float64 {
	out := make([]float64, len(col))
	if len(col) == 0 {
		return out
	}
	lo, hi := floats.Min(col), floats.Max(col)
	span := hi - lo
	if span <= 0 {
		return out
	}
	for i, v := range col {
		out[i] = clamp01((v - lo) / span)
	}
	return out
}

func allMissing(col []float64) bool {
	for _, v := range col {
		if !isMissing(v) {
			return false
		}
	}
	return true
}

// normalize winsorizes, imputes and scales every column, dropping columns
// that have no data at all.
func normalize(f *frame, cal *Calibration) (*frame, []college.Attribute, error) {
	out := &frame{cols: make(map[college.Attribute][]float64, len(f.attrs))}
	var dropped []college.Attribute

	for _, a := range f.attrs {
		col := winsorize(f.cols[a], cal.WinsorLower, cal.WinsorUpper)
		col = impute(col)
		if allMissing(col) {
			dropped = append(dropped, a)
			continue
		}
		out.attrs = append(out.attrs, a)
		out.cols[a] = minMaxScale(col)
	}

	if len(out.attrs) == 0 {
		return nil, dropped, ErrNoUsableNumericFeatures
	}
	return out, dropped, nil
}

// correctDirection flips lower-is-better columns in place so that a higher
// value is always better.
func correctDirection(f *frame, lowerIsBetter college.AttributeSet) {
	for _, a := range f.attrs {
		if !lowerIsBetter.Has(a) {
			continue
		}
		col := f.cols[a]
		for i, v := range col {
			if !isMissing(v) {
				col[i] = 1 - v
			}
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
