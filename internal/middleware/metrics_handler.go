package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsTokenHeader carries the shared secret for the metrics endpoint.
const MetricsTokenHeader = "X-Metrics-Token"

// MetricsHandler serves the metrics gathered by reg in the Prometheus
// exposition format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// RequireToken rejects requests whose X-Metrics-Token header does not equal
// token, comparing in constant time. An empty token disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get(MetricsTokenHeader)), []byte(token)) != 1 {
				UpdateResponseContext(w, SetErrorCode(r.Context(), "forbidden"))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
