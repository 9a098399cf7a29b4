package ranking

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/onnwee/collegefit/internal/college"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		col    []float64
		want   float64
		wantOK bool
	}{
		{"odd count", []float64{3, 1, 2}, 2, true},
		{"even count averages middle pair", []float64{4, 1, 3, 2}, 2.5, true},
		{"skips missing", []float64{missing, 10, missing, 20}, 15, true},
		{"single value", []float64{7}, 7, true},
		{"all missing", []float64{missing, missing}, 0, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := median(tt.col)
			if ok != tt.wantOK {
				t.Fatalf("median() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("median() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestWinsorize_ClipsOutliers(t *testing.T) {
	col := make([]float64, 0, 101)
	for i := 0; i <= 99; i++ {
		col = append(col, float64(i))
	}
	col = append(col, 1e9, missing)

	out := winsorize(col, 0.01, 0.99)

	if out[len(out)-2] >= 1e9 {
		t.Errorf("expected outlier to be clipped, got %f", out[len(out)-2])
	}
	if !isMissing(out[len(out)-1]) {
		t.Error("expected missing value to stay missing")
	}
	if col[len(col)-2] != 1e9 {
		t.Error("winsorize must not modify its input")
	}
}

func TestWinsorize_AllMissing(t *testing.T) {
	out := winsorize([]float64{missing, missing}, 0.01, 0.99)
	if !allMissing(out) {
		t.Error("expected all-missing column to be returned unchanged")
	}
}

func TestImpute(t *testing.T) {
	out := impute([]float64{1, missing, 3, missing, 5})
	want := []float64{1, 3, 3, 3, 5}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("impute()[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestMinMaxScale(t *testing.T) {
	t.Run("spreads to unit interval", func(t *testing.T) {
		out := minMaxScale([]float64{10, 20, 30})
		want := []float64{0, 0.5, 1}
		for i := range want {
			if math.Abs(out[i]-want[i]) > 1e-12 {
				t.Errorf("minMaxScale()[%d] = %f, want %f", i, out[i], want[i])
			}
		}
	})

	t.Run("constant column maps to zero", func(t *testing.T) {
		for i, v := range minMaxScale([]float64{4, 4, 4}) {
			if v != 0 {
				t.Errorf("minMaxScale()[%d] = %f, want 0", i, v)
			}
		}
	})
}

func TestNormalize_DropsEmptyColumns(t *testing.T) {
	records := []college.Record{
		record(1, map[college.Attribute]float64{college.AdmissionRate: 0.2}),
		record(2, map[college.Attribute]float64{college.AdmissionRate: 0.8}),
	}
	f := newFrame(records, []college.Attribute{college.AdmissionRate, college.MedianDebt})

	norm, dropped, err := normalize(f, DefaultCalibration())
	if err != nil {
		t.Fatalf("normalize() error: %v", err)
	}
	if len(dropped) != 1 || dropped[0] != college.MedianDebt {
		t.Errorf("expected median_debt dropped, got %v", dropped)
	}
	if norm.column(college.MedianDebt) != nil {
		t.Error("dropped column should not be in the frame")
	}
	if norm.column(college.AdmissionRate) == nil {
		t.Error("admission_rate should be retained")
	}
}

func TestNormalize_NothingUsable(t *testing.T) {
	records := []college.Record{record(1, nil), record(2, nil)}
	f := newFrame(records, []college.Attribute{college.MedianDebt})

	if _, _, err := normalize(f, DefaultCalibration()); err != ErrNoUsableNumericFeatures {
		t.Errorf("expected ErrNoUsableNumericFeatures, got %v", err)
	}
}

func TestCorrectDirection(t *testing.T) {
	records := []college.Record{
		record(1, map[college.Attribute]float64{college.CostOfAttendance: 10000, college.GraduationRate150: 0.9}),
		record(2, map[college.Attribute]float64{college.CostOfAttendance: 50000, college.GraduationRate150: 0.5}),
	}
	f := newFrame(records, []college.Attribute{college.CostOfAttendance, college.GraduationRate150})
	norm, _, err := normalize(f, DefaultCalibration())
	if err != nil {
		t.Fatalf("normalize() error: %v", err)
	}
	correctDirection(norm, LowerIsBetter(true))

	cost := norm.column(college.CostOfAttendance)
	if cost[0] != 1 || cost[1] != 0 {
		t.Errorf("expected cheaper school to score 1, got %v", cost)
	}
	grad := norm.column(college.GraduationRate150)
	if grad[0] != 1 || grad[1] != 0 {
		t.Errorf("expected higher graduation rate to keep score 1, got %v", grad)
	}
}

func columnGen() *rapid.Generator[[]float64] {
	return rapid.Custom(func(t *rapid.T) []float64 {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		col := make([]float64, n)
		for i := range col {
			if rapid.Float64Range(0, 1).Draw(t, "presence") < 0.2 {
				col[i] = missing
				continue
			}
			col[i] = rapid.Float64Range(-1e6, 1e6).Draw(t, "v")
		}
		return col
	})
}

func TestWinsorize_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		col := columnGen().Draw(t, "col")
		once := winsorize(col, 0.01, 0.99)
		twice := winsorize(once, 0.01, 0.99)
		for i := range once {
			if isMissing(once[i]) != isMissing(twice[i]) {
				t.Fatalf("missingness changed at %d", i)
			}
			if !isMissing(once[i]) && once[i] != twice[i] {
				t.Fatalf("winsorize not idempotent at %d: %f != %f", i, once[i], twice[i])
			}
		}
	})
}

func TestNormalize_UnitInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		col := columnGen().Draw(t, "col")
		f := &frame{
			attrs: []college.Attribute{college.AdmissionRate},
			cols:  map[college.Attribute][]float64{college.AdmissionRate: col},
		}
		norm, _, err := normalize(f, DefaultCalibration())
		if allMissing(col) {
			if err != ErrNoUsableNumericFeatures {
				t.Fatalf("expected ErrNoUsableNumericFeatures, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("normalize() error: %v", err)
		}
		for i, v := range norm.column(college.AdmissionRate) {
			if isMissing(v) || v < 0 || v > 1 {
				t.Fatalf("value %d out of range: %f", i, v)
			}
		}
	})
}
