// Package jobs runs periodic background work and records its outcome.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricBackgroundJobsTotal      = "background_jobs_total"
	MetricBackgroundJobsDuration   = "background_jobs_duration_seconds"
	MetricBackgroundJobErrorsTotal = "background_job_errors_total"
)

// Job types.
const (
	JobTypeCatalogReload    = "catalog_reload"
	JobTypeRateLimitCleanup = "rate_limit_cleanup"
)

// Values of the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Values of the error_type label.
const (
	ErrorTypeTimeout  = "timeout"
	ErrorTypeCanceled = "canceled"
	ErrorTypeFailed   = "failed"
)

// Metrics counts and times job runs. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBackgroundJobsTotal,
			Help: "Background job runs by job type and status.",
		}, []string{"job_type", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricBackgroundJobsDuration,
			Help:    "Background job run time in seconds.",
			Buckets: prometheus.ExponentialBucketsRange(0.001, 30, 9),
		}, []string{"job_type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricBackgroundJobErrorsTotal,
			Help: "Failed background job runs by job type and cause.",
		}, []string{"job_type", "error_type"}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runs, m.duration, m.failures}
}

// observe records one finished run of jobType.
func (m *Metrics) observe(jobType string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(jobType).Observe(elapsed.Seconds())
	if err != nil {
		m.runs.WithLabelValues(jobType, StatusFailure).Inc()
		m.failures.WithLabelValues(jobType, errorType(err)).Inc()
		return
	}
	m.runs.WithLabelValues(jobType, StatusSuccess).Inc()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrorTypeCanceled
	default:
		return ErrorTypeFailed
	}
}
