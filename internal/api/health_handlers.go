package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker is a dependency checked by /ready.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

const readyTimeout = 5 * time.Second

// Check states reported in HealthResponse.Checks.
const (
	checkOK            = "ok"
	checkError         = "error"
	checkNotConfigured = "not_configured"
)

// HealthHandlersConfig lists the checked dependencies. A nil checker is
// reported as not_configured and does not fail readiness.
type HealthHandlersConfig struct {
	DBChecker      HealthChecker
	RedisChecker   HealthChecker
	CatalogChecker HealthChecker
	MetricsEnabled bool
}

type dependency struct {
	name    string
	checker HealthChecker
}

// HealthHandlers serves /health (liveness) and /ready (readiness).
type HealthHandlers struct {
	deps           []dependency
	metricsEnabled bool
}

func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		deps: []dependency{
			{"database", config.DBChecker},
			{"redis", config.RedisChecker},
			{"catalog", config.CatalogChecker},
		},
		metricsEnabled: config.MetricsEnabled,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health answers 200 whenever the process can serve requests.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeHealth(w, true, map[string]string{"runtime": checkOK})
}

// Ready answers 503 when any configured dependency fails its check.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	healthy := true
	checks := make(map[string]string, len(h.deps)+1)
	for _, dep := range h.deps {
		if dep.checker == nil {
			checks[dep.name] = checkNotConfigured
			continue
		}
		if err := dep.checker.HealthCheck(ctx); err != nil {
			checks[dep.name] = checkError
			healthy = false
			slog.WarnContext(ctx, "readiness check failed", "dependency", dep.name, "error", err)
			continue
		}
		checks[dep.name] = checkOK
	}
	if h.metricsEnabled {
		checks["metrics"] = checkOK
	}
	writeHealth(w, healthy, checks)
}

// requireGet answers 405 with an Allow header for anything but GET.
func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeCodedError(w, r.Context(), ErrCodeMethodNotAllowed, "Method not allowed")
	return false
}

func writeHealth(w http.ResponseWriter, healthy bool, checks map[string]string) {
	resp := HealthResponse{Status: "healthy", Checks: checks, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK
	if !healthy {
		resp.Status, status = "unhealthy", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}
