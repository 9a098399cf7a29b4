package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/onnwee/collegefit/internal/college"
)

// Search limits for GET /colleges.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// CatalogReader looks up catalog entries.
type CatalogReader interface {
	College(ctx context.Context, id int64) (*college.Record, error)
	Search(ctx context.Context, query string, limit int) ([]college.Record, error)
}

// CollegeHandlers serves the catalog browsing endpoints.
type CollegeHandlers struct {
	catalog CatalogReader
	logger  *slog.Logger
}

// NewCollegeHandlers creates the handlers. A nil logger uses slog.Default().
func NewCollegeHandlers(catalog CatalogReader, logger *slog.Logger) *CollegeHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollegeHandlers{catalog: catalog, logger: logger}
}

// CollegeListResponse is the body of GET /colleges.
type CollegeListResponse struct {
	Colleges []college.Record `json:"colleges"`
	Count    int              `json:"count"`
}

// List handles GET /colleges?q=&limit=.
func (h *CollegeHandlers) List(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	limit := DefaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxSearchLimit {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation,
				"limit must be an integer between 1 and "+strconv.Itoa(MaxSearchLimit))
			return
		}
		limit = n
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	recs, err := h.catalog.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "college search failed", "error", err)
		writeCodedError(w, r.Context(), ErrCodeCatalogUnavailable, "The college catalog is temporarily unavailable.")
		return
	}
	if recs == nil {
		recs = []college.Record{}
	}

	writeResponse(w, r, http.StatusOK, CollegeListResponse{
		Colleges: recs,
		Count:    len(recs),
	})
}

// Get handles GET /colleges/{id}.
func (h *CollegeHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "College id must be a positive integer")
		return
	}

	rec, err := h.catalog.College(r.Context(), id)
	if err != nil {
		if errors.Is(err, college.ErrNotFound) {
			writeCodedError(w, r.Context(), ErrCodeCollegeNotFound, "College not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "college lookup failed", "error", err, "college_id", id)
		writeCodedError(w, r.Context(), ErrCodeCatalogUnavailable, "The college catalog is temporarily unavailable.")
		return
	}

	writeResponse(w, r, http.StatusOK, rec)
}
