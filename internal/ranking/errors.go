package ranking

import "errors"

// Terminal ranking outcomes. Each is returned from the first stage that can
// detect it and is never retried.
var (
	// ErrNoCandidates means retrieval produced an empty collection.
	ErrNoCandidates = errors.New("no schools match the selected filters; try broadening your search")

	// ErrNoUsableFeatures means neither the requested categories nor the
	// default attribute list intersect the collection's columns.
	ErrNoUsableFeatures = errors.New("no usable features found in the catalog")

	// ErrNoUsableNumericFeatures means every selected attribute is entirely
	// missing after imputation.
	ErrNoUsableNumericFeatures = errors.New("no usable numeric features after missing-value handling")

	// ErrNoCandidatesRanked means scoring finished but no candidate ended
	// with a defined score.
	ErrNoCandidatesRanked = errors.New("no schools match the criteria after ranking; try broadening filters")
)

// IsNoMatch reports whether err means the filters left nothing to show, as
// opposed to the data being insufficient to score.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrNoCandidatesRanked)
}

// IsInsufficientData reports whether err means the catalog lacks the data
// needed to score.
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrNoUsableFeatures) || errors.Is(err, ErrNoUsableNumericFeatures)
}
