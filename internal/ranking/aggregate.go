package ranking

// buckets holds one sub-score column per populated category, aligned with
// the candidate slice. Missing entries are NaN.
type buckets struct {
	cats   []Category
	scores map[Category][]float64
}

func (b *buckets) add(c Category, col []float64) {
	if b.scores == nil {
		b.scores = make(map[Category][]float64)
	}
	b.cats = append(b.cats, c)
	b.scores[c] = col
}

// aggregate averages the corrected attribute columns within each category.
// A candidate missing some of a category's attributes is scored from the
// ones it has.
func aggregate(f *frame, n int) *buckets {
	b := &buckets{}
	for _, c := range categoryOrder {
		var cols [][]float64
		for _, a := range featureMap[c] {
			if col := f.column(a); col != nil {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			continue
		}
		out := make([]float64, n)
		row := make([]float64, len(cols))
		for i := 0; i < n; i++ {
			for j, col := range cols {
				row[j] = col[i]
			}
			out[i], _ = weightedMean(row, nil)
		}
		b.add(c, out)
	}
	return b
}

// resolveWeights assigns a weight to every bucket. Requested categories use
// their priority and an unweighted fit bucket takes the admissions weight
// or 1. Buckets left without weight are skipped by combine. When nothing
// was requested, or the request weights none of the populated buckets,
// every bucket gets weight 1.
func resolveWeights(b *buckets, p Priorities) map[Category]float64 {
	weights := make(map[Category]float64, len(b.cats))
	if len(p.Active()) > 0 {
		for _, c := range b.cats {
			if w, ok := p.Weight(c); ok {
				weights[c] = w
			}
		}
		if _, hasFit := b.scores[Fit]; hasFit {
			if _, explicit := weights[Fit]; !explicit {
				weights[Fit] = 1
				if w, ok := p.Weight(Admissions); ok {
					weights[Fit] = w
				}
			}
		}
	}

	if len(weights) == 0 {
		for _, c := range b.cats {
			weights[c] = 1
		}
	}
	return weights
}

// combine computes each candidate's weighted mean over the buckets it has a
// value for. Candidates with no such bucket get NaN.
func combine(b *buckets, weights map[Category]float64, n int) []float64 {
	ws := make([]float64, len(b.cats))
	for j, c := range b.cats {
		ws[j] = weights[c]
	}

	out := make([]float64, n)
	row := make([]float64, len(b.cats))
	for i := 0; i < n; i++ {
		for j, c := range b.cats {
			row[j] = b.scores[c][i]
		}
		out[i], _ = weightedMean(row, ws)
	}
	return out
}
