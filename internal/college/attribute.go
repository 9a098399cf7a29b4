// Package college defines the canonical college record schema and the
// catalog repositories that supply candidate collections to the ranker.
package college

import (
	"sort"
	"strings"
)

// Attribute identifies one numeric column of the canonical college schema.
// Source-specific spellings (upper-case scorecard names, legacy aliases) are
// resolved by whatever loads records; everything past this package speaks
// Attribute only.
type Attribute int

// Scoring attributes.
const (
	RetentionRateFT Attribute = iota + 1
	GraduationRate150
	AdmissionRate
	CostOfAttendance
	MedianDebt
	AvgFacultySalary
	DiversityScore
	UrbanicityScore

	// Band attributes feed academic fit only.
	SATAvg
	SATVerbal25
	SATVerbal75
	SATMath25
	SATMath75
	ACTComposite25
	ACTComposite75
	ACTCompositeMid
	GPA25
	GPA75

	// Descriptive attributes carried for display and derivation.
	TuitionInState
	TuitionOutOfState
	EarningsIncome1
	EarningsIncome2
	EarningsIncome3
	UndergradPopulation
	PctWhite
	PctBlack
	PctHispanic
	PctAsian
	PctPellEligible

	attributeEnd
)

var attributeNames = map[Attribute]string{
	RetentionRateFT:     "retention_rate_ft",
	GraduationRate150:   "graduation_rate_150",
	AdmissionRate:       "admission_rate",
	CostOfAttendance:    "cost_of_attendance",
	MedianDebt:          "median_debt",
	AvgFacultySalary:    "avg_faculty_salary",
	DiversityScore:      "diversity_score",
	UrbanicityScore:     "urbanicity_score",
	SATAvg:              "sat_avg",
	SATVerbal25:         "sat_verbal_25",
	SATVerbal75:         "sat_verbal_75",
	SATMath25:           "sat_math_25",
	SATMath75:           "sat_math_75",
	ACTComposite25:      "act_composite_25",
	ACTComposite75:      "act_composite_75",
	ACTCompositeMid:     "act_composite_mid",
	GPA25:               "gpa_25",
	GPA75:               "gpa_75",
	TuitionInState:      "tuition_in_state",
	TuitionOutOfState:   "tuition_out_of_state",
	EarningsIncome1:     "earnings_income1",
	EarningsIncome2:     "earnings_income2",
	EarningsIncome3:     "earnings_income3",
	UndergradPopulation: "undergrad_population",
	PctWhite:            "pct_white",
	PctBlack:            "pct_black",
	PctHispanic:         "pct_hispanic",
	PctAsian:            "pct_asian",
	PctPellEligible:     "pct_pell_eligible",
}

var attributesByName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(attributeNames))
	for a, name := range attributeNames {
		m[name] = a
	}
	return m
}()

// String returns the canonical column name.
func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether a is a member of the canonical schema.
func (a Attribute) Valid() bool {
	return a > 0 && a < attributeEnd
}

// ParseAttribute looks up a canonical column name. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseAttribute(name string) (Attribute, bool) {
	a, ok := attributesByName[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// MarshalText implements encoding.TextMarshaler so attributes can be used as
// JSON object keys.
func (a Attribute) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Attribute) UnmarshalText(text []byte) error {
	parsed, ok := ParseAttribute(string(text))
	if !ok {
		return &UnknownAttributeError{Name: string(text)}
	}
	*a = parsed
	return nil
}

// UnknownAttributeError is returned when decoding a column name outside the schema.
type UnknownAttributeError struct {
	Name string
}

func (e *UnknownAttributeError) Error() string {
	return "unknown college attribute: " + e.Name
}

// AllAttributes returns every attribute of the canonical schema in
// declaration order.
func AllAttributes() []Attribute {
	out := make([]Attribute, 0, int(attributeEnd)-1)
	for a := Attribute(1); a < attributeEnd; a++ {
		out = append(out, a)
	}
	return out
}

// AttributeSet is an unordered set of attributes.
type AttributeSet map[Attribute]struct{}

// NewAttributeSet builds a set from the given attributes.
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	s := make(AttributeSet, len(attrs))
	for _, a := range attrs {
		s[a] = struct{}{}
	}
	return s
}

// FullSchema returns a set holding every canonical attribute.
func FullSchema() AttributeSet {
	return NewAttributeSet(AllAttributes()...)
}

// Has reports whether a is in the set.
func (s AttributeSet) Has(a Attribute) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the members in declaration order.
func (s AttributeSet) Sorted() []Attribute {
	out := make([]Attribute, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
