package middleware

import (
	"context"
	"net/http"
)

type errorCodeKey struct{}

// SetErrorCode stores an API error code in ctx for the Logging and
// HTTPMetrics middleware.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, code)
}

// GetErrorCode returns the error code stored in ctx, or "".
func GetErrorCode(ctx context.Context) string {
	if code, ok := ctx.Value(errorCodeKey{}).(string); ok {
		return code
	}
	return ""
}

// UpdateResponseContext hands the error code in ctx to every recorder
// wrapping w. Handlers call it because the middleware still holds the
// original request and never sees a context set further down.
func UpdateResponseContext(w http.ResponseWriter, ctx context.Context) {
	code := GetErrorCode(ctx)
	if code == "" {
		return
	}
	for w != nil {
		if rec, ok := w.(*recorder); ok {
			rec.errorCode = code
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = u.Unwrap()
	}
}

// recorder captures what a handler wrote: status, body size and the API
// error code, if any.
type recorder struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
	errorCode   string
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader keeps the first status only, as net/http does.
func (rec *recorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.status = code
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	rec.wroteHeader = true
	n, err := rec.ResponseWriter.Write(b)
	rec.size += int64(n)
	return n, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rec *recorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// code returns the error code for an error response, preferring the one a
// handler pushed through UpdateResponseContext.
func (rec *recorder) code(r *http.Request) string {
	if rec.status < 400 {
		return ""
	}
	if rec.errorCode != "" {
		return rec.errorCode
	}
	return GetErrorCode(r.Context())
}
