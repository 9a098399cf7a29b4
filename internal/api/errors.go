// Package api provides the HTTP handlers of the recommendation service,
// with a standard error envelope and content negotiation.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/collegefit/internal/middleware"
)

// Error codes returned in the envelope.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// ErrCodeNoMatches means the filters left no college to rank.
	ErrCodeNoMatches = "no_matches"
	// ErrCodeInsufficientData means no candidate had enough usable data.
	ErrCodeInsufficientData   = "insufficient_data"
	ErrCodeCollegeNotFound    = "college_not_found"
	ErrCodeCatalogUnavailable = "catalog_unavailable"
)

var codeStatus = map[string]int{
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeNoMatches:          http.StatusNotFound,
	ErrCodeCollegeNotFound:    http.StatusNotFound,
	ErrCodeMethodNotAllowed:   http.StatusMethodNotAllowed,
	ErrCodeInsufficientData:   http.StatusUnprocessableEntity,
	ErrCodeCatalogUnavailable: http.StatusServiceUnavailable,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// ErrorResponse is the body of every error: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes the JSON error envelope, regardless of the request's
// Accept header, and records code for the logging and metrics middleware.
//
//	api.WriteError(w, r.Context(), http.StatusNotFound, api.ErrCodeCollegeNotFound, "College not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	ctx = middleware.SetErrorCode(ctx, code)
	middleware.UpdateResponseContext(w, ctx)

	body, err := json.Marshal(ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// StatusCodeMapping returns the HTTP status for an error code. Unknown codes
// map to 500.
func StatusCodeMapping(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeCodedError(w http.ResponseWriter, ctx context.Context, code, message string) {
	WriteError(w, ctx, StatusCodeMapping(code), code, message)
}
