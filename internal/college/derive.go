package college

import "math"

// Urbanicity by IPEDS locale family (first digit of the locale code).
var localeUrbanicity = map[int]float64{
	1: 1.0,  // city
	2: 0.67, // suburb
	3: 0.33, // town
	4: 0.0,  // rural
}

var demographicShares = []Attribute{PctWhite, PctBlack, PctHispanic, PctAsian}

// Derive returns r with diversity_score and urbanicity_score filled in from
// their inputs when the record does not already carry them. Repositories
// call it on every record they emit.
func Derive(r Record) Record {
	if _, ok := r.Value(DiversityScore); !ok {
		if d, ok := diversityIndex(&r); ok {
			r = r.With(DiversityScore, d)
		}
	}
	if _, ok := r.Value(UrbanicityScore); !ok && r.Locale != nil {
		if u, ok := localeUrbanicity[*r.Locale/10]; ok {
			r = r.With(UrbanicityScore, u)
		}
	}
	return r
}

// diversityIndex computes the Gini-Simpson index 1 - sum(p^2) over the
// demographic shares. A record is read as percentages when any share
// exceeds 1 or the shares sum past 1.5.
func diversityIndex(r *Record) (float64, bool) {
	shares := make([]float64, 0, len(demographicShares))
	var total float64
	percent := false
	for _, a := range demographicShares {
		p, ok := r.Value(a)
		if !ok {
			continue
		}
		if p < 0 {
			p = 0
		}
		if p > 1 {
			percent = true
		}
		total += p
		shares = append(shares, p)
	}
	if len(shares) == 0 {
		return 0, false
	}
	if total > 1.5 {
		percent = true
	}

	var sumSq float64
	for _, p := range shares {
		if percent {
			p /= 100
		}
		sumSq += p * p
	}
	return math.Max(0, 1-sumSq), true
}
