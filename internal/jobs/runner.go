package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/collegefit/internal/tracing"
)

// ErrInvalidJob is returned when a job has no type, body or interval.
var ErrInvalidJob = errors.New("invalid job")

// Job is a unit of periodic work.
type Job struct {
	Type     string
	Interval time.Duration
	// Timeout bounds a single run. Zero means no bound beyond the runner's context.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

func (j Job) validate() error {
	if j.Type == "" || j.Run == nil {
		return fmt.Errorf("%w: type and run are required", ErrInvalidJob)
	}
	if j.Interval <= 0 {
		return fmt.Errorf("%w: %s interval must be > 0 (got %s)", ErrInvalidJob, j.Type, j.Interval)
	}
	return nil
}

// Runner schedules jobs on their own goroutines. metrics may be nil.
type Runner struct {
	metrics *Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	cancels []context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner creates a Runner.
func NewRunner(metrics *Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{metrics: metrics, logger: logger}
}

// Start runs job every Interval until ctx is done or Stop is called.
// The first run happens one interval after Start.
func (r *Runner) Start(ctx context.Context, job Job) error {
	if err := job.validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancels = append(r.cancels, cancel)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(job.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = r.RunOnce(ctx, job)
			}
		}
	}()

	r.logger.Info("background job scheduled",
		slog.String("job_type", job.Type),
		slog.Duration("interval", job.Interval))
	return nil
}

// RunOnce runs job a single time and records the outcome.
func (r *Runner) RunOnce(ctx context.Context, job Job) error {
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	ctx, endSpan := tracing.StartSpan(ctx, "job."+job.Type,
		attribute.String("job.type", job.Type))
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	endSpan(err)
	r.metrics.observe(job.Type, elapsed, err)

	if err != nil {
		r.logger.WarnContext(ctx, "background job failed",
			slog.String("job_type", job.Type),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return err
	}

	r.logger.DebugContext(ctx, "background job finished",
		slog.String("job_type", job.Type),
		slog.Duration("duration", elapsed))
	return nil
}

// Stop cancels every started job and waits for in-flight runs to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	for _, cancel := range r.cancels {
		cancel()
	}
	r.cancels = nil
	r.mu.Unlock()
	r.wg.Wait()
}
