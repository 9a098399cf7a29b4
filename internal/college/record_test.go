package college

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"id": 7,
		"name": "Example State",
		"state": "CA",
		"locale": 21,
		"admission_rate": 0.42,
		"median_debt": null,
		"ADMISSION_RATE_SUPP": 0.5,
		"mascot": "otter"
	}`)

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if rec.ID != 7 || rec.Name != "Example State" || rec.State != "CA" {
		t.Errorf("unexpected meta fields: %+v", rec)
	}
	if rec.Locale == nil || *rec.Locale != 21 {
		t.Errorf("expected locale 21, got %v", rec.Locale)
	}
	if v, ok := rec.Value(AdmissionRate); !ok || v != 0.42 {
		t.Errorf("expected admission_rate 0.42, got %v (%v)", v, ok)
	}
	if _, ok := rec.Value(MedianDebt); ok {
		t.Error("null attribute should be missing")
	}
	if len(rec.Values) != 1 {
		t.Errorf("unknown keys should be ignored, got values %v", rec.Values)
	}
}

func TestRecord_UnmarshalJSON_BadAttribute(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"id":1,"admission_rate":"high"}`), &rec); err == nil {
		t.Error("expected error for non-numeric attribute")
	}
}

func TestRecord_MarshalJSON_Flat(t *testing.T) {
	rec := Record{
		ID:   3,
		Name: "Flat College",
		Values: map[Attribute]float64{
			CostOfAttendance: 25000,
			MedianDebt:       math.NaN(),
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if flat["cost_of_attendance"] != float64(25000) {
		t.Errorf("expected flattened cost_of_attendance, got %v", flat["cost_of_attendance"])
	}
	if _, ok := flat["median_debt"]; ok {
		t.Error("NaN attribute should be omitted")
	}
	if _, ok := flat["Values"]; ok {
		t.Error("Values map should not be emitted")
	}
	if flat["name"] != "Flat College" {
		t.Errorf("expected name, got %v", flat["name"])
	}
}

func TestRecord_With(t *testing.T) {
	orig := Record{ID: 1, Values: map[Attribute]float64{AdmissionRate: 0.3}}
	updated := orig.With(AdmissionRate, 0.9)

	if orig.Values[AdmissionRate] != 0.3 {
		t.Error("With must not modify the receiver")
	}
	if updated.Values[AdmissionRate] != 0.9 {
		t.Errorf("expected 0.9, got %f", updated.Values[AdmissionRate])
	}
}

func TestRecord_Value_NonFinite(t *testing.T) {
	rec := Record{Values: map[Attribute]float64{
		AdmissionRate:    math.Inf(1),
		CostOfAttendance: math.NaN(),
	}}
	if _, ok := rec.Value(AdmissionRate); ok {
		t.Error("infinite value should be missing")
	}
	if _, ok := rec.Value(CostOfAttendance); ok {
		t.Error("NaN value should be missing")
	}
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{States: []string{" ca", "NY", "", "Ca"}}.Normalize()
	if !reflect.DeepEqual(f.States, []string{"CA", "NY"}) {
		t.Errorf("Normalize() = %v", f.States)
	}
}

func TestParseStates(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"CA,NY", []string{"CA", "NY"}},
		{" ma , ri ,", []string{"MA", "RI"}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		if got := ParseStates(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseStates(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFilter_Matches(t *testing.T) {
	cheap := Record{State: "CA", Values: map[Attribute]float64{CostOfAttendance: 20000}}
	pricey := Record{State: "NY", Values: map[Attribute]float64{CostOfAttendance: 80000}}
	unknownCost := Record{State: "CA"}
	ceiling := 50000.0

	tests := []struct {
		name   string
		filter Filter
		rec    Record
		want   bool
	}{
		{"no filter", Filter{}, unknownCost, true},
		{"state match", Filter{States: []string{"CA"}}, cheap, true},
		{"state mismatch", Filter{States: []string{"CA"}}, pricey, false},
		{"state match is case-insensitive", Filter{States: []string{"ny"}}, pricey, true},
		{"under ceiling", Filter{MaxCost: &ceiling}, cheap, true},
		{"over ceiling", Filter{MaxCost: &ceiling}, pricey, false},
		{"missing cost fails ceiling", Filter{MaxCost: &ceiling}, unknownCost, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(&tt.rec); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttribute_Parse(t *testing.T) {
	for _, a := range AllAttributes() {
		got, ok := ParseAttribute(a.String())
		if !ok || got != a {
			t.Errorf("ParseAttribute(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if a, ok := ParseAttribute(" Admission_Rate "); !ok || a != AdmissionRate {
		t.Error("expected case-insensitive match")
	}
	if _, ok := ParseAttribute("mascot"); ok {
		t.Error("unknown name should not parse")
	}

	var a Attribute
	if err := a.UnmarshalText([]byte("mascot")); err == nil {
		t.Error("expected UnknownAttributeError")
	}
}

func TestAttributeSet_Sorted(t *testing.T) {
	s := NewAttributeSet(UrbanicityScore, RetentionRateFT, AdmissionRate)
	want := []Attribute{RetentionRateFT, AdmissionRate, UrbanicityScore}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted() = %v, want %v", got, want)
	}
	if len(FullSchema()) != len(AllAttributes()) {
		t.Error("full schema should contain every attribute")
	}
}
