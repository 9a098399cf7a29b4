package ranking

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankRequests        = "ranking_requests_total"
	MetricRankDuration        = "ranking_duration_seconds"
	MetricRankCandidates      = "ranking_candidates"
	MetricRankFeaturesDropped = "ranking_features_dropped_total"
	MetricRankUndefinedScores = "ranking_undefined_scores_total"
)

// Outcome labels for MetricRankRequests.
const (
	OutcomeOK                      = "ok"
	OutcomeNoCandidates            = "no_candidates"
	OutcomeNoUsableFeatures        = "no_usable_features"
	OutcomeNoUsableNumericFeatures = "no_usable_numeric_features"
	OutcomeNoCandidatesRanked      = "no_candidates_ranked"
	OutcomeError                   = "error"
)

// Metrics contains Prometheus metrics for ranking runs.
// All operations are thread-safe, and a nil *Metrics is a no-op.
type Metrics struct {
	requests        *prometheus.CounterVec
	duration        prometheus.Histogram
	candidates      prometheus.Histogram
	featuresDropped *prometheus.CounterVec
	undefinedScores prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankRequests,
				Help: "Total number of ranking runs by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of ranking run duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankCandidates,
			Help:    "Number of candidates supplied to each ranking run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		}),
		featuresDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankFeaturesDropped,
				Help: "Total number of attributes dropped by pipeline stage",
			},
			[]string{"stage"},
		),
		undefinedScores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRankUndefinedScores,
			Help: "Total number of candidates excluded because their final score was undefined",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requests,
		m.duration,
		m.candidates,
		m.featuresDropped,
		m.undefinedScores,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun records the outcome, duration and input size of one run.
func (m *Metrics) ObserveRun(err error, seconds float64, candidates int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcomeLabel(err)).Inc()
	m.duration.Observe(seconds)
	m.candidates.Observe(float64(candidates))
}

// AddDropped counts attributes removed at a stage ("coverage" or "empty").
func (m *Metrics) AddDropped(stage string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.featuresDropped.WithLabelValues(stage).Add(float64(n))
}

// AddUndefined counts candidates excluded for lack of a final score.
func (m *Metrics) AddUndefined(n int) {
	if m == nil || n == 0 {
		return
	}
	m.undefinedScores.Add(float64(n))
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoCandidates):
		return OutcomeNoCandidates
	case errors.Is(err, ErrNoUsableFeatures):
		return OutcomeNoUsableFeatures
	case errors.Is(err, ErrNoUsableNumericFeatures):
		return OutcomeNoUsableNumericFeatures
	case errors.Is(err, ErrNoCandidatesRanked):
		return OutcomeNoCandidatesRanked
	default:
		return OutcomeError
	}
}
