package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

var staticRoutes = map[string]bool{
	"/":                true,
	"/recommendations": true,
	"/colleges":        true,
	"/health":          true,
	"/ready":           true,
	"/metrics":         true,
}

// unmatchedRoute labels any path the router does not serve.
const unmatchedRoute = "unmatched"

// normalizePath maps a request path to its route pattern, e.g.
// /colleges/110635 to /colleges/{id}. Unknown paths share one label so
// scanners cannot grow the series count.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, "/colleges/"); ok && id != "" && !strings.Contains(id, "/") {
		return "/colleges/{id}"
	}
	return unmatchedRoute
}

// Health checks are excluded from request metrics.
var healthPaths = map[string]bool{"/health": true, "/ready": true}

// HTTPMetrics records duration, sizes and count per route and status, and
// counts error responses by API error code.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if healthPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			var requestSize int64
			if r.ContentLength > 0 {
				requestSize = r.ContentLength
			}
			route := normalizePath(r.URL.Path)
			metrics.ObserveHTTPRequest(r.Method, route, strconv.Itoa(rec.status),
				time.Since(start).Seconds(), requestSize, rec.size)
			if code := rec.code(r); code != "" {
				metrics.IncAPIError(route, code)
			}
		})
	}
}
