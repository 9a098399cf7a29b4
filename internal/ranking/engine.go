package ranking

import (
	"log/slog"
	"sort"
	"time"

	"github.com/onnwee/collegefit/internal/college"
)

// Request carries the user inputs for one ranking run.
type Request struct {
	Profile           Profile
	Priorities        Priorities
	TopN              int  // <= 0 uses the calibration default
	PreferSelectivity bool // lower admission rate scores better
}

// DefaultRequest returns a request with selectivity preferred and the
// default result count.
func DefaultRequest() Request {
	return Request{PreferSelectivity: true}
}

// Result is one ranked college with its explainability breakdown.
type Result struct {
	College college.Record       `json:"college"`
	Rank    int                  `json:"rank"`
	Score   float64              `json:"score"`
	Buckets map[Category]float64 `json:"bucket_scores"`
}

// Engine ranks candidate collections. It holds only immutable configuration
// and is safe for concurrent use.
type Engine struct {
	cal     *Calibration
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-stage debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates an engine. A nil calibration uses the defaults.
func NewEngine(cal *Calibration, opts ...Option) *Engine {
	if cal == nil {
		cal = DefaultCalibration()
	}
	e := &Engine{
		cal:    cal,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calibration returns the engine's constants.
func (e *Engine) Calibration() Calibration {
	return *e.cal
}

// Rank scores every candidate and returns the best TopN in descending score
// order. Candidates whose score is undefined are left out. The returned
// order is final.
func (e *Engine) Rank(c college.Collection, req Request) (results []Result, err error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveRun(err, time.Since(start).Seconds(), c.Len())
	}()

	n := c.Len()
	if n == 0 {
		return nil, ErrNoCandidates
	}
	if c.Columns == nil {
		c.Columns = college.FullSchema()
	}

	feats, err := selectFeatures(req.Priorities, c.Columns)
	if err != nil {
		return nil, err
	}

	kept, lowCoverage := filterCoverage(feats, c.Records, e.cal.CoverageThreshold)
	e.metrics.AddDropped("coverage", len(lowCoverage))

	norm, empty, err := normalize(newFrame(c.Records, kept), e.cal)
	e.metrics.AddDropped("empty", len(empty))
	if err != nil {
		return nil, err
	}
	correctDirection(norm, LowerIsBetter(req.PreferSelectivity))

	b := aggregate(norm, n)
	if fit, ok := fitScores(c, req.Profile, e.cal); ok {
		b.add(Fit, fit)
	}

	weights := resolveWeights(b, req.Priorities)
	scores := combine(b, weights, n)

	e.logger.Debug("ranking pipeline",
		slog.Int("candidates", n),
		slog.Any("selected", feats),
		slog.Any("low_coverage", lowCoverage),
		slog.Any("empty", empty),
		slog.Any("buckets", b.cats),
		slog.Bool("prefer_selectivity", req.PreferSelectivity))

	results = e.top(c.Records, b, scores, e.topN(req.TopN))
	if len(results) == 0 {
		return nil, ErrNoCandidatesRanked
	}
	return results, nil
}

func (e *Engine) topN(requested int) int {
	if requested <= 0 {
		return e.cal.DefaultTopN
	}
	if requested > e.cal.MaxTopN {
		return e.cal.MaxTopN
	}
	return requested
}

// top orders the defined scores descending, keeping input order among ties,
// and materializes the first limit results.
func (e *Engine) top(records []college.Record, b *buckets, scores []float64, limit int) []Result {
	idx := make([]int, 0, len(scores))
	for i, s := range scores {
		if !isMissing(s) {
			idx = append(idx, i)
		}
	}
	e.metrics.AddUndefined(len(scores) - len(idx))

	sort.SliceStable(idx, func(x, y int) bool {
		return scores[idx[x]] > scores[idx[y]]
	})
	if len(idx) > limit {
		idx = idx[:limit]
	}

	out := make([]Result, 0, len(idx))
	for pos, i := range idx {
		breakdown := make(map[Category]float64, len(b.cats))
		for _, cat := range b.cats {
			if v := b.scores[cat][i]; !isMissing(v) {
				breakdown[cat] = v
			}
		}
		out = append(out, Result{
			College: records[i],
			Rank:    pos + 1,
			Score:   scores[i],
			Buckets: breakdown,
		})
	}
	return out
}
