package ranking

import (
	"math"

	"github.com/onnwee/collegefit/internal/college"
)

// Profile holds the user's academic credentials. Nil fields were not
// supplied.
type Profile struct {
	SAT *float64 `json:"sat,omitempty"`
	ACT *float64 `json:"act,omitempty"`
	GPA *float64 `json:"gpa,omitempty"`
}

// Empty reports whether no credential was supplied.
func (p Profile) Empty() bool {
	return value(p.SAT) == nil && value(p.ACT) == nil && value(p.GPA) == nil
}

func value(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// BandFit scores how well u falls inside [lo, hi]. Inside the band the fit
// is 1; outside it falls off linearly by band width, reaching 0 one full
// width away. ok is false when the band is missing or has no positive width.
func BandFit(u, lo, hi float64) (fit float64, ok bool) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsNaN(u) {
		return missing, false
	}
	width := hi - lo
	if !(width > 0) {
		return missing, false
	}
	switch {
	case u < lo:
		return clamp01(1 - (lo-u)/width), true
	case u > hi:
		return clamp01(1 - (u-hi)/width), true
	default:
		return 1, true
	}
}

// bandSource resolves one candidate's acceptable band for a signal.
type bandSource func(r *college.Record, cols college.AttributeSet) (lo, hi float64, ok bool)

// pair reads a [lo, hi] band from two columns.
func pair(loAttr, hiAttr college.Attribute) bandSource {
	return func(r *college.Record, cols college.AttributeSet) (float64, float64, bool) {
		if !cols.Has(loAttr) || !cols.Has(hiAttr) {
			return 0, 0, false
		}
		lo, okLo := r.Value(loAttr)
		hi, okHi := r.Value(hiAttr)
		return lo, hi, okLo && okHi
	}
}

// summed adds two bands, as the SAT section bands combine into a total.
func summed(a, b bandSource) bandSource {
	return func(r *college.Record, cols college.AttributeSet) (float64, float64, bool) {
		loA, hiA, okA := a(r, cols)
		loB, hiB, okB := b(r, cols)
		return loA + loB, hiA + hiB, okA && okB
	}
}

// around builds a band of +/- offset around a midpoint column.
func around(mid college.Attribute, offset float64) bandSource {
	return func(r *college.Record, cols college.AttributeSet) (float64, float64, bool) {
		if !cols.Has(mid) {
			return 0, 0, false
		}
		m, ok := r.Value(mid)
		return m - offset, m + offset, ok
	}
}

// firstOf tries sources in order and uses the first one the record can
// satisfy.
func firstOf(sources ...bandSource) bandSource {
	return func(r *college.Record, cols college.AttributeSet) (float64, float64, bool) {
		for _, src := range sources {
			if lo, hi, ok := src(r, cols); ok {
				return lo, hi, true
			}
		}
		return 0, 0, false
	}
}

type fitSignal struct {
	user *float64
	band bandSource
}

func fitSignals(p Profile, cal *Calibration) []fitSignal {
	var signals []fitSignal
	if u := value(p.SAT); u != nil {
		signals = append(signals, fitSignal{u, firstOf(
			summed(pair(college.SATVerbal25, college.SATVerbal75), pair(college.SATMath25, college.SATMath75)),
			around(college.SATAvg, cal.SATMidpointOffset),
		)})
	}
	if u := value(p.ACT); u != nil {
		signals = append(signals, fitSignal{u, firstOf(
			pair(college.ACTComposite25, college.ACTComposite75),
			around(college.ACTCompositeMid, cal.ACTMidpointOffset),
		)})
	}
	if u := value(p.GPA); u != nil {
		signals = append(signals, fitSignal{u, pair(college.GPA25, college.GPA75)})
	}
	return signals
}

// fitScores returns the academic fit per candidate, NaN where no signal was
// computable. ok is false when the profile is empty or no candidate has a
// defined fit, in which case no fit bucket should be created.
func fitScores(c college.Collection, p Profile, cal *Calibration) (scores []float64, ok bool) {
	signals := fitSignals(p, cal)
	if len(signals) == 0 {
		return nil, false
	}

	scores = make([]float64, len(c.Records))
	fits := make([]float64, len(signals))
	for i := range c.Records {
		rec := &c.Records[i]
		for j, s := range signals {
			fits[j] = missing
			if lo, hi, found := s.band(rec, c.Columns); found {
				if f, defined := BandFit(*s.user, lo, hi); defined {
					fits[j] = f
				}
			}
		}
		scores[i], _ = weightedMean(fits, nil)
		if !isMissing(scores[i]) {
			ok = true
		}
	}
	return scores, ok
}
