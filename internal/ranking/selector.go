package ranking

import (
	"github.com/onnwee/collegefit/internal/college"
)

// selectFeatures collects the attributes behind every requested category
// that the collection actually provides. When nothing matches it falls back
// to the default attribute list.
func selectFeatures(p Priorities, columns college.AttributeSet) ([]college.Attribute, error) {
	seen := make(college.AttributeSet)
	for _, c := range p.Active() {
		for _, a := range featureMap[c] {
			if columns.Has(a) {
				seen[a] = struct{}{}
			}
		}
	}
	if len(seen) > 0 {
		return seen.Sorted(), nil
	}

	var feats []college.Attribute
	for _, a := range defaultFeatures {
		if columns.Has(a) {
			feats = append(feats, a)
		}
	}
	if len(feats) == 0 {
		return nil, ErrNoUsableFeatures
	}
	return feats, nil
}

// coverage returns the fraction of records with a present value for a.
func coverage(records []college.Record, a college.Attribute) float64 {
	if len(records) == 0 {
		return 0
	}
	present := 0
	for i := range records {
		if _, ok := records[i].Value(a); ok {
			present++
		}
	}
	return float64(present) / float64(len(records))
}

// filterCoverage keeps attributes whose coverage is at least threshold. If
// that would leave nothing, the unfiltered selection is returned.
func filterCoverage(feats []college.Attribute, records []college.Record, threshold float64) (kept, dropped []college.Attribute) {
	for _, a := range feats {
		if coverage(records, a) >= threshold {
			kept = append(kept, a)
		} else {
			dropped = append(dropped, a)
		}
	}
	if len(kept) == 0 {
		return feats, nil
	}
	return kept, dropped
}
