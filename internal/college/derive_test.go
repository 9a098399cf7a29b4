package college

import (
	"math"
	"testing"
)

func intRef(v int) *int { return &v }

func TestDerive_Diversity(t *testing.T) {
	tests := []struct {
		name   string
		values map[Attribute]float64
		want   float64
		wantOK bool
	}{
		{
			name:   "even split",
			values: map[Attribute]float64{PctWhite: 0.25, PctBlack: 0.25, PctHispanic: 0.25, PctAsian: 0.25},
			want:   0.75,
			wantOK: true,
		},
		{
			name:   "single group",
			values: map[Attribute]float64{PctWhite: 1.0},
			want:   0,
			wantOK: true,
		},
		{
			name:   "percentages are rescaled",
			values: map[Attribute]float64{PctWhite: 50, PctBlack: 50},
			want:   0.5,
			wantOK: true,
		},
		{
			name:   "small percentage share is not read as a fraction",
			values: map[Attribute]float64{PctWhite: 70, PctBlack: 20, PctHispanic: 9.2, PctAsian: 0.8},
			want:   1 - (0.49 + 0.04 + 0.008464 + 0.000064),
			wantOK: true,
		},
		{
			name:   "percentages all at most one",
			values: map[Attribute]float64{PctWhite: 0.9, PctBlack: 0.7, PctHispanic: 0.6},
			want:   1 - (0.000081 + 0.000049 + 0.000036),
			wantOK: true,
		},
		{
			name:   "fraction shares",
			values: map[Attribute]float64{PctWhite: 0.7, PctBlack: 0.2, PctHispanic: 0.092, PctAsian: 0.008},
			want:   1 - (0.49 + 0.04 + 0.008464 + 0.000064),
			wantOK: true,
		},
		{
			name:   "no demographic data",
			values: map[Attribute]float64{AdmissionRate: 0.5},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Derive(Record{Values: tt.values})
			got, ok := rec.Value(DiversityScore)
			if ok != tt.wantOK {
				t.Fatalf("diversity present = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("diversity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestDerive_Urbanicity(t *testing.T) {
	tests := []struct {
		locale int
		want   float64
		wantOK bool
	}{
		{11, 1.0, true},
		{21, 0.67, true},
		{32, 0.33, true},
		{43, 0.0, true},
		{-3, 0, false},
	}
	for _, tt := range tests {
		rec := Derive(Record{Locale: intRef(tt.locale)})
		got, ok := rec.Value(UrbanicityScore)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("locale %d: urbanicity = %v, %v; want %v, %v", tt.locale, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDerive_KeepsExisting(t *testing.T) {
	rec := Record{
		Locale: intRef(11),
		Values: map[Attribute]float64{
			DiversityScore:  0.1,
			UrbanicityScore: 0.2,
			PctWhite:        0.5,
			PctBlack:        0.5,
		},
	}
	out := Derive(rec)
	if out.Values[DiversityScore] != 0.1 || out.Values[UrbanicityScore] != 0.2 {
		t.Errorf("Derive overwrote supplied values: %v", out.Values)
	}
}
