package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/onnwee/collegefit/internal/college"
	"github.com/onnwee/collegefit/internal/export"
	"github.com/onnwee/collegefit/internal/middleware"
	"github.com/onnwee/collegefit/internal/ranking"
	"github.com/onnwee/collegefit/internal/recommend"
)

// Input limits for POST /recommendations.
const (
	MinSAT     = 400
	MaxSAT     = 1600
	MinACT     = 1
	MaxACT     = 36
	MaxGPA     = 5.0
	MaxTopN    = 100
	maxBodyLen = 64 << 10
)

// priorityAliases maps the names used by older clients to categories.
var priorityAliases = map[string]string{
	"professors": "faculty",
	"urbanicity": "location",
}

// Recommender produces ranked recommendations.
type Recommender interface {
	Recommend(ctx context.Context, q recommend.Query) (*recommend.Recommendation, error)
}

// RecommendationHandlers serves POST /recommendations.
type RecommendationHandlers struct {
	svc    Recommender
	logger *slog.Logger
}

// NewRecommendationHandlers creates the handlers. A nil logger uses slog.Default().
func NewRecommendationHandlers(svc Recommender, logger *slog.Logger) *RecommendationHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationHandlers{svc: svc, logger: logger}
}

// StateList accepts either a JSON array of state codes or a single
// comma-separated string.
type StateList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StateList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = college.ParseStates(raw)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("states must be an array or a comma-separated string: %w", err)
	}
	*s = list
	return nil
}

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	States            StateList          `json:"states"`
	MaxCost           *float64           `json:"max_cost,omitempty"`
	SAT               *float64           `json:"sat,omitempty"`
	ACT               *float64           `json:"act,omitempty"`
	GPA               *float64           `json:"gpa,omitempty"`
	Priorities        map[string]float64 `json:"priorities"`
	TopN              *int               `json:"top_n,omitempty"`
	PreferSelectivity *bool              `json:"prefer_selectivity,omitempty"`
}

// ResultView is one ranked college as rendered by the API.
type ResultView struct {
	College      college.Record     `json:"college"`
	Rank         int                `json:"rank"`
	Score        float64            `json:"score"`
	BucketScores map[string]float64 `json:"bucket_scores"`
}

// RecommendationResponse is the body of a successful POST /recommendations.
type RecommendationResponse struct {
	Results        []ResultView `json:"results"`
	Count          int          `json:"count"`
	CandidateCount int          `json:"candidate_count"`
}

func newResultView(r ranking.Result) ResultView {
	buckets := make(map[string]float64, len(r.Buckets))
	for c, v := range r.Buckets {
		buckets[c.String()] = v
	}
	return ResultView{
		College:      r.College,
		Rank:         r.Rank,
		Score:        r.Score,
		BucketScores: buckets,
	}
}

// validate checks ranges and returns the first problem found.
func (req *RecommendationRequest) validate() string {
	if msg := checkRange("sat", req.SAT, MinSAT, MaxSAT); msg != "" {
		return msg
	}
	if msg := checkRange("act", req.ACT, MinACT, MaxACT); msg != "" {
		return msg
	}
	if msg := checkRange("gpa", req.GPA, 0, MaxGPA); msg != "" {
		return msg
	}
	if req.MaxCost != nil && (!isFinite(*req.MaxCost) || *req.MaxCost <= 0) {
		return "max_cost must be a positive number"
	}
	if req.TopN != nil && (*req.TopN < 1 || *req.TopN > MaxTopN) {
		return fmt.Sprintf("top_n must be between 1 and %d", MaxTopN)
	}
	for name, w := range req.Priorities {
		if !isFinite(w) || w < 0 {
			return fmt.Sprintf("priority %q must be a non-negative number", name)
		}
	}
	for _, s := range req.States {
		s = strings.TrimSpace(s)
		if len(s) != 2 {
			return fmt.Sprintf("invalid state code %q", s)
		}
	}
	return ""
}

func checkRange(field string, v *float64, lo, hi float64) string {
	if v == nil {
		return ""
	}
	if !isFinite(*v) || *v < lo || *v > hi {
		return fmt.Sprintf("%s must be between %g and %g", field, lo, hi)
	}
	return ""
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// resolvePriorities maps aliases onto their categories. An explicit
// canonical entry wins over its alias.
func resolvePriorities(raw map[string]float64) ranking.Priorities {
	resolved := make(map[string]float64, len(raw))
	for name, w := range raw {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, isAlias := priorityAliases[key]; isAlias {
			continue
		}
		resolved[key] = w
	}
	for name, w := range raw {
		key := strings.ToLower(strings.TrimSpace(name))
		if target, isAlias := priorityAliases[key]; isAlias {
			if _, explicit := resolved[target]; !explicit {
				resolved[target] = w
			}
		}
	}
	return ranking.ParsePriorities(resolved)
}

// query converts a validated request.
func (req *RecommendationRequest) query() recommend.Query {
	q := recommend.Query{
		Filter: college.Filter{
			States:  req.States,
			MaxCost: req.MaxCost,
		},
		Profile: ranking.Profile{
			SAT: req.SAT,
			ACT: req.ACT,
			GPA: req.GPA,
		},
		Priorities:        resolvePriorities(req.Priorities),
		PreferSelectivity: true,
	}
	if req.TopN != nil {
		q.TopN = *req.TopN
	}
	if req.PreferSelectivity != nil {
		q.PreferSelectivity = *req.PreferSelectivity
	}
	return q
}

// Recommend handles POST /recommendations.
func (h *RecommendationHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
		return
	}

	var req RecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyLen)).Decode(&req); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}
	if msg := req.validate(); msg != "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, msg)
		return
	}

	rec, err := h.svc.Recommend(r.Context(), req.query())
	if err != nil {
		h.writeRecommendError(w, r.Context(), err)
		return
	}

	if negotiate(r, true) == formatXLSX {
		h.writeXLSX(w, r, rec.Results)
		return
	}

	resp := RecommendationResponse{
		Results:        make([]ResultView, 0, len(rec.Results)),
		Count:          len(rec.Results),
		CandidateCount: rec.CandidateCount,
	}
	for _, res := range rec.Results {
		resp.Results = append(resp.Results, newResultView(res))
	}
	writeResponse(w, r, http.StatusOK, resp)
}

func (h *RecommendationHandlers) writeRecommendError(w http.ResponseWriter, ctx context.Context, err error) {
	switch {
	case ranking.IsNoMatch(err):
		writeCodedError(w, ctx, ErrCodeNoMatches, "No colleges match your criteria. Try broadening your search.")
	case ranking.IsInsufficientData(err):
		writeCodedError(w, ctx, ErrCodeInsufficientData, "Not enough data to score the matching colleges.")
	case errors.Is(err, recommend.ErrCatalogUnavailable):
		h.logger.ErrorContext(ctx, "catalog unavailable", "error", err)
		writeCodedError(w, ctx, ErrCodeCatalogUnavailable, "The college catalog is temporarily unavailable.")
	default:
		h.logger.ErrorContext(ctx, "recommendation failed", "error", err)
		writeCodedError(w, ctx, ErrCodeInternal, "Failed to compute recommendations")
	}
}

func (h *RecommendationHandlers) writeXLSX(w http.ResponseWriter, r *http.Request, results []ranking.Result) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, results); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build workbook", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to encode response")
		return
	}
	w.Header().Set("Content-Type", ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="recommendations.xlsx"`)
	w.Header().Add("Vary", "Accept")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write workbook", "error", err, "request_id", middleware.GetRequestID(r.Context()))
	}
}
