package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var (
	passing = HealthCheckFunc(func(context.Context) error { return nil })
	failing = HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serveHealth(t *testing.T, handler http.HandlerFunc, path string) (int, HealthResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, path, nil))

	if ct := w.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Errorf("%s: Content-Type = %q, want %q", path, ct, contentTypeJSON)
	}
	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return w.Code, resp
}

func TestHealth(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{CatalogChecker: failing})

	// Liveness ignores dependencies.
	code, resp := serveHealth(t, h.Health, "/health")
	if code != http.StatusOK || resp.Status != "healthy" || resp.Checks["runtime"] != checkOK {
		t.Errorf("got %d %+v", code, resp)
	}
	if _, err := time.Parse(time.RFC3339, resp.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", resp.Timestamp, err)
	}
}

func TestHealthEndpoints_MethodNotAllowed(t *testing.T) {
	h := NewHealthHandlers(HealthHandlersConfig{})
	for path, handler := range map[string]http.HandlerFunc{"/health": h.Health, "/ready": h.Ready} {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, path, nil))
		if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != http.MethodGet {
			t.Errorf("POST %s = %d Allow=%q, want 405 Allow=GET", path, w.Code, w.Header().Get("Allow"))
		}
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		config     HealthHandlersConfig
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "postgres catalog healthy",
			config:     HealthHandlersConfig{DBChecker: passing, RedisChecker: passing, MetricsEnabled: true},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "ok", "redis": "ok", "catalog": "not_configured", "metrics": "ok"},
		},
		{
			name:       "database down",
			config:     HealthHandlersConfig{DBChecker: failing, RedisChecker: passing},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "error", "redis": "ok"},
		},
		{
			name:       "redis down",
			config:     HealthHandlersConfig{RedisChecker: failing, CatalogChecker: passing},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"redis": "error", "catalog": "ok"},
		},
		{
			name:       "empty seed catalog",
			config:     HealthHandlersConfig{CatalogChecker: failing},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "not_configured", "redis": "not_configured", "catalog": "error"},
		},
		{
			name:       "nothing configured",
			config:     HealthHandlersConfig{},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "not_configured", "redis": "not_configured", "catalog": "not_configured"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := serveHealth(t, NewHealthHandlers(tt.config).Ready, "/ready")
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			wantState := "healthy"
			if tt.wantStatus != http.StatusOK {
				wantState = "unhealthy"
			}
			if resp.Status != wantState {
				t.Errorf("state = %q, want %q", resp.Status, wantState)
			}
			for check, want := range tt.wantChecks {
				if got := resp.Checks[check]; got != want {
					t.Errorf("check %s = %q, want %q", check, got, want)
				}
			}
			if _, ok := resp.Checks["metrics"]; ok != tt.config.MetricsEnabled {
				t.Errorf("metrics check present = %v, want %v", ok, tt.config.MetricsEnabled)
			}
		})
	}
}
