package ranking

import (
	"log/slog"
	"math"
	"strings"

	"github.com/onnwee/collegefit/internal/college"
)

// Category is a user-facing preference dimension. Each category except Fit
// maps to a fixed list of college attributes.
type Category int

const (
	Academics Category = iota + 1
	Admissions
	Cost
	Faculty
	Diversity
	Location
	Prestige
	Fit
)

// categoryOrder fixes iteration order everywhere a category list is built.
var categoryOrder = []Category{Academics, Admissions, Cost, Faculty, Diversity, Location, Prestige, Fit}

var categoryNames = map[Category]string{
	Academics:  "academics",
	Admissions: "admissions",
	Cost:       "cost",
	Faculty:    "faculty",
	Diversity:  "diversity",
	Location:   "location",
	Prestige:   "prestige",
	Fit:        "fit",
}

// passThrough names are accepted in priority maps but never expand to
// attributes.
var passThrough = map[string]bool{
	"value":  true,
	"campus": true,
}

// String returns the lower-case category name.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseCategory looks up a category by name. Pass-through markers and
// unknown names report false.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// Categories returns every category in canonical order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// featureMap lists the attributes behind each category. An attribute may
// appear under more than one category.
var featureMap = map[Category][]college.Attribute{
	Academics:  {college.RetentionRateFT, college.GraduationRate150},
	Admissions: {college.AdmissionRate},
	Cost:       {college.CostOfAttendance, college.MedianDebt},
	Faculty:    {college.AvgFacultySalary},
	Diversity:  {college.DiversityScore},
	Location:   {college.UrbanicityScore},
	Prestige:   {college.AdmissionRate},
}

// Features returns a copy of the attribute list for c. Fit has none.
func Features(c Category) []college.Attribute {
	attrs := featureMap[c]
	out := make([]college.Attribute, len(attrs))
	copy(out, attrs)
	return out
}

// defaultFeatures is used when no requested category yields an attribute.
var defaultFeatures = []college.Attribute{
	college.RetentionRateFT,
	college.GraduationRate150,
	college.AdmissionRate,
	college.CostOfAttendance,
	college.MedianDebt,
	college.AvgFacultySalary,
	college.DiversityScore,
	college.UrbanicityScore,
}

// LowerIsBetter returns the attributes whose normalized value is flipped.
// Admission rate is included only when selectivity is preferred.
func LowerIsBetter(preferSelectivity bool) college.AttributeSet {
	s := college.NewAttributeSet(college.CostOfAttendance, college.MedianDebt)
	if preferSelectivity {
		s[college.AdmissionRate] = struct{}{}
	}
	return s
}

// Priorities maps categories to non-negative weights. Missing and zero
// entries both mean "not requested".
type Priorities map[Category]float64

// Weight returns the weight for c if it is positive.
func (p Priorities) Weight(c Category) (float64, bool) {
	w, ok := p[c]
	if !ok || w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false
	}
	return w, true
}

// Active returns the requested categories in canonical order.
func (p Priorities) Active() []Category {
	var out []Category
	for _, c := range categoryOrder {
		if _, ok := p.Weight(c); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParsePriorities converts a name-keyed weight map. Unknown names,
// pass-through markers and non-positive or non-finite weights are dropped.
func ParsePriorities(raw map[string]float64) Priorities {
	p := make(Priorities, len(raw))
	for name, w := range raw {
		c, ok := ParseCategory(name)
		if !ok {
			if !passThrough[strings.ToLower(strings.TrimSpace(name))] {
				slog.Debug("ignoring unknown priority category", "category", name)
			}
			continue
		}
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		p[c] = w
	}
	return p
}
