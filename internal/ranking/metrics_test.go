package ranking

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/onnwee/collegefit/internal/college"
)

func TestMetrics_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		m := NewMetrics()
		reg := prometheus.NewRegistry()

		if err := m.Register(reg); err != nil {
			t.Errorf("Register() returned error: %v", err)
		}

		m.ObserveRun(nil, 0.01, 3)
		m.AddDropped("coverage", 1)
		m.AddUndefined(1)

		families, err := reg.Gather()
		if err != nil {
			t.Errorf("Gather() returned error: %v", err)
		}

		expectedNames := map[string]bool{
			MetricRankRequests:        false,
			MetricRankDuration:        false,
			MetricRankCandidates:      false,
			MetricRankFeaturesDropped: false,
			MetricRankUndefinedScores: false,
		}
		for _, family := range families {
			if _, ok := expectedNames[family.GetName()]; ok {
				expectedNames[family.GetName()] = true
			}
		}
		for name, found := range expectedNames {
			if !found {
				t.Errorf("metric %s not found in gathered metrics", name)
			}
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		if err := NewMetrics().Register(reg); err != nil {
			t.Fatalf("first Register() returned error: %v", err)
		}
		if err := NewMetrics().Register(reg); err == nil {
			t.Error("second Register() should have returned an error")
		}
	})
}

func getCounterVecValue(vec *prometheus.CounterVec, labels ...string) float64 {
	metric, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return -1
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		return -1
	}
	return m.GetCounter().GetValue()
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRun(nil, 1, 1)
	m.AddDropped("empty", 2)
	m.AddUndefined(3)
}

func TestOutcomeLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{ErrNoCandidates, OutcomeNoCandidates},
		{ErrNoUsableFeatures, OutcomeNoUsableFeatures},
		{ErrNoUsableNumericFeatures, OutcomeNoUsableNumericFeatures},
		{ErrNoCandidatesRanked, OutcomeNoCandidatesRanked},
		{errors.New("boom"), OutcomeError},
	}
	for _, tt := range tests {
		if got := outcomeLabel(tt.err); got != tt.want {
			t.Errorf("outcomeLabel(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestEngine_RecordsMetrics(t *testing.T) {
	m := NewMetrics()
	e := NewEngine(nil, WithMetrics(m))

	var records []college.Record
	for i := int64(1); i <= 5; i++ {
		values := map[college.Attribute]float64{college.RetentionRateFT: float64(i)}
		if i == 1 {
			values[college.MedianDebt] = 1000
		}
		records = append(records, record(i, values))
	}
	if _, err := e.Rank(college.NewCollection(records), DefaultRequest()); err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if _, err := e.Rank(college.NewCollection(nil), DefaultRequest()); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}

	if got := getCounterVecValue(m.requests, OutcomeOK); got != 1 {
		t.Errorf("expected 1 ok run, got %f", got)
	}
	if got := getCounterVecValue(m.requests, OutcomeNoCandidates); got != 1 {
		t.Errorf("expected 1 no_candidates run, got %f", got)
	}
	// Seven default attributes are absent or below coverage.
	if got := getCounterVecValue(m.featuresDropped, "coverage"); got != 7 {
		t.Errorf("expected 7 attributes dropped for coverage, got %f", got)
	}
}
