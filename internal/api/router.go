package api

import (
	"net/http"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "collegefit-api"

// RouterConfig holds the handlers mounted by NewRouter. Nil handlers are
// not mounted.
type RouterConfig struct {
	Recommendations *RecommendationHandlers
	Colleges        *CollegeHandlers
	Health          *HealthHandlers
	Metrics         http.Handler

	// RecommendLimiter wraps POST /recommendations, typically a rate limiter.
	RecommendLimiter func(http.Handler) http.Handler

	Version string
}

// NewRouter registers the API routes. Method checks are left to the
// handlers so that every rejection uses the JSON error envelope.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	if cfg.Recommendations != nil {
		var h http.Handler = http.HandlerFunc(cfg.Recommendations.Recommend)
		if cfg.RecommendLimiter != nil {
			h = cfg.RecommendLimiter(h)
		}
		mux.Handle("/recommendations", h)
	}
	if cfg.Colleges != nil {
		mux.HandleFunc("/colleges", cfg.Colleges.List)
		mux.HandleFunc("/colleges/{id}", cfg.Colleges.Get)
	}
	if cfg.Health != nil {
		mux.HandleFunc("/health", cfg.Health.Health)
		mux.HandleFunc("/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Only the exact root is served; everything else is a structured 404.
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		writeResponse(w, r, http.StatusOK, map[string]string{
			"service": ServiceName,
			"version": version,
		})
	})

	return mux
}
