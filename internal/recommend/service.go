// Package recommend joins catalog retrieval and ranking into the single
// operation the API and CLI expose.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/collegefit/internal/college"
	"github.com/onnwee/collegefit/internal/ranking"
	"github.com/onnwee/collegefit/internal/tracing"
)

// ErrCatalogUnavailable wraps failures of the catalog repository. Ranking
// errors are never wrapped with it.
var ErrCatalogUnavailable = errors.New("college catalog unavailable")

// Query is one recommendation request: hard filters for retrieval plus the
// ranking inputs.
type Query struct {
	Filter            college.Filter
	Profile           ranking.Profile
	Priorities        ranking.Priorities
	TopN              int
	PreferSelectivity bool
}

// Recommendation is the ranked answer to a Query.
type Recommendation struct {
	Results        []ranking.Result `json:"results"`
	CandidateCount int              `json:"candidate_count"`
}

// Service runs recommendations against a catalog.
type Service struct {
	repo   college.Repository
	engine *ranking.Engine
	logger *slog.Logger
}

// NewService creates a Service. A nil logger uses slog.Default().
func NewService(repo college.Repository, engine *ranking.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		engine: engine,
		logger: logger,
	}
}

// Recommend retrieves the candidates matching q.Filter and ranks them.
// Ranking errors are returned wrapped, so errors.Is against the ranking
// sentinels works on the result.
func (s *Service) Recommend(ctx context.Context, q Query) (rec *Recommendation, err error) {
	filter := q.Filter.Normalize()
	ctx, endSpan := tracing.StartSpan(ctx, "recommend.Recommend",
		attribute.StringSlice("recommend.states", filter.States),
		attribute.Bool("recommend.max_cost_set", filter.MaxCost != nil),
		attribute.Bool("recommend.profile_set", !q.Profile.Empty()),
		attribute.Int("recommend.top_n", q.TopN))
	defer func() { endSpan(err) }()

	coll, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	tracing.SetAttributes(ctx, attribute.Int("recommend.candidates", coll.Len()))

	results, err := s.engine.Rank(coll, ranking.Request{
		Profile:           q.Profile,
		Priorities:        q.Priorities,
		TopN:              q.TopN,
		PreferSelectivity: q.PreferSelectivity,
	})
	if err != nil {
		s.logger.InfoContext(ctx, "recommendation produced no ranking",
			slog.Int("candidates", coll.Len()),
			slog.String("reason", err.Error()))
		return nil, fmt.Errorf("rank candidates: %w", err)
	}
	tracing.SetAttributes(ctx, attribute.Int("recommend.results", len(results)))

	return &Recommendation{
		Results:        results,
		CandidateCount: coll.Len(),
	}, nil
}

// College returns a single catalog entry.
func (s *Service) College(ctx context.Context, id int64) (*college.Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil && !errors.Is(err, college.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return rec, err
}

// Search looks colleges up by name.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]college.Record, error) {
	recs, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return recs, nil
}
