package college

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Control values as published by IPEDS.
const (
	ControlPublic           = 1
	ControlPrivateNonprofit = 2
	ControlPrivateForProfit = 3
)

// Record is one institution in the catalog. Numeric attributes live in
// Values; an absent key means the value is missing. Records handed to the
// ranker are treated as read-only.
type Record struct {
	ID          int64    `json:"id"`
	UnitID      int64    `json:"unitid,omitempty"`
	Name        string   `json:"name"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	ZIP         string   `json:"zip_code,omitempty"`
	Website     string   `json:"website_url,omitempty"`
	NetPriceURL string   `json:"net_price_url,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Control     *int     `json:"control,omitempty"`
	Locale      *int     `json:"locale,omitempty"`
	Region      *int     `json:"region,omitempty"`
	IsHBCU      bool     `json:"is_hbcu,omitempty"`
	IsTribal    bool     `json:"is_tribal,omitempty"`

	Values map[Attribute]float64 `json:"-"`
}

// Value returns the attribute value and whether it is present. NaN and
// infinities count as missing.
func (r *Record) Value(a Attribute) (float64, bool) {
	v, ok := r.Values[a]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Clone returns a deep copy of r. Repositories hand out clones so callers
// cannot reach the stored record.
func (r Record) Clone() Record {
	if r.Values != nil {
		values := make(map[Attribute]float64, len(r.Values))
		for k, v := range r.Values {
			values[k] = v
		}
		r.Values = values
	}
	r.Latitude = clonePtr(r.Latitude)
	r.Longitude = clonePtr(r.Longitude)
	r.Control = clonePtr(r.Control)
	r.Locale = clonePtr(r.Locale)
	r.Region = clonePtr(r.Region)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// With returns a copy of r with attribute a set to v. The receiver is not
// modified.
func (r Record) With(a Attribute, v float64) Record {
	values := make(map[Attribute]float64, len(r.Values)+1)
	for k, val := range r.Values {
		values[k] = val
	}
	values[a] = v
	r.Values = values
	return r
}

type recordMeta Record

// MarshalJSON flattens Values into the top-level object using canonical
// column names.
func (r Record) MarshalJSON() ([]byte, error) {
	meta, err := json.Marshal(recordMeta(r))
	if err != nil {
		return nil, err
	}
	flat := make(map[string]json.RawMessage)
	if err := json.Unmarshal(meta, &flat); err != nil {
		return nil, err
	}
	for a, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		flat[a.String()] = raw
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads a flat object. Keys matching a canonical attribute
// become Values (null means missing); unknown keys are ignored.
func (r *Record) UnmarshalJSON(data []byte) error {
	var meta recordMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	values := make(map[Attribute]float64)
	for key, raw := range flat {
		a, ok := ParseAttribute(key)
		if !ok {
			continue
		}
		var v *float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("attribute %s: %w", key, err)
		}
		if v != nil {
			values[a] = *v
		}
	}
	*r = Record(meta)
	r.Values = values
	return nil
}

// Collection is a candidate set together with the columns its source
// provides. A column may be listed even when every record lacks it.
type Collection struct {
	Columns AttributeSet
	Records []Record
}

// NewCollection wraps records with the full canonical schema as columns.
func NewCollection(records []Record) Collection {
	return Collection{Columns: FullSchema(), Records: records}
}

// Len returns the number of records.
func (c Collection) Len() int {
	return len(c.Records)
}

// Filter holds the hard constraints applied during retrieval.
type Filter struct {
	States  []string
	MaxCost *float64
}

// Normalize upper-cases and trims state codes and drops blanks and
// duplicates.
func (f Filter) Normalize() Filter {
	seen := make(map[string]bool, len(f.States))
	states := make([]string, 0, len(f.States))
	for _, s := range f.States {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		states = append(states, s)
	}
	f.States = states
	return f
}

// ParseStates splits a comma-separated list of state codes.
func ParseStates(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return Filter{States: strings.Split(raw, ",")}.Normalize().States
}

// Matches reports whether the record satisfies the filter. A record with a
// missing cost never satisfies a cost ceiling.
func (f Filter) Matches(r *Record) bool {
	if len(f.States) > 0 {
		found := false
		for _, s := range f.States {
			if strings.EqualFold(s, r.State) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MaxCost != nil {
		cost, ok := r.Value(CostOfAttendance)
		if !ok || cost > *f.MaxCost {
			return false
		}
	}
	return true
}
