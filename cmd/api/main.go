// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/collegefit/internal/api"
	"github.com/onnwee/collegefit/internal/college"
	"github.com/onnwee/collegefit/internal/config"
	"github.com/onnwee/collegefit/internal/db"
	"github.com/onnwee/collegefit/internal/health"
	"github.com/onnwee/collegefit/internal/jobs"
	"github.com/onnwee/collegefit/internal/middleware"
	"github.com/onnwee/collegefit/internal/ranking"
	"github.com/onnwee/collegefit/internal/recommend"
	"github.com/onnwee/collegefit/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 5 * time.Minute
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "optional YAML config file (environment variables take precedence)")
	flag.Parse()

	if *help {
		fmt.Println("CollegeFit API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:    api.ServiceName,
		ServiceVersion: version,
		Enabled:        cfg.TracingEnabled,
		Environment:    cfg.Env,
		ExporterType:   cfg.OTelExporterType,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SamplingRate:   cfg.TracingSampleRate,
		InsecureMode:   !cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, server, logger)
}

// serve runs server until ctx is done or the listener fails.
func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// app is the wired server: its handler plus the resources to release.
type app struct {
	handler  http.Handler
	registry *prometheus.Registry
	closers  []func() error
}

// Close releases the catalog database and Redis connections.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
}

// newApp wires catalog, ranking engine, rate limiting and handlers from cfg.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}

	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("register http metrics: %w", err)
	}
	rankMetrics := ranking.NewMetrics()
	if err := rankMetrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("register ranking metrics: %w", err)
	}
	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("register job metrics: %w", err)
	}
	runner := jobs.NewRunner(jobMetrics, logger)
	a.closers = append(a.closers, func() error {
		runner.Stop()
		return nil
	})

	cal, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to the defaults.
		logger.Warn("using default ranking calibration", "error", err)
	}
	engine := ranking.NewEngine(cal, ranking.WithLogger(logger), ranking.WithMetrics(rankMetrics))

	healthCfg := api.HealthHandlersConfig{MetricsEnabled: true}

	var repo college.Repository
	if cfg.DatabaseURL != "" {
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("open catalog database: %w", err)
		}
		a.closers = append(a.closers, sqlDB.Close)
		repo = college.NewPostgresRepository(sqlDB, logger)
		healthCfg.DBChecker = health.NewDBChecker(sqlDB)
		logger.Info("catalog backed by postgres")
	} else {
		mem, err := college.LoadJSON(cfg.CatalogSeedPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog seed: %w", err)
		}
		repo = mem
		healthCfg.CatalogChecker = health.NewCatalogChecker(mem)
		logger.Info("catalog loaded from seed file", "path", cfg.CatalogSeedPath, "colleges", mem.Len())

		if cfg.CatalogReloadInterval > 0 {
			err := runner.Start(ctx, catalogReloadJob(mem, cfg.CatalogSeedPath, cfg.CatalogReloadInterval, logger))
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("schedule catalog reload: %w", err)
			}
		}
	}

	var store middleware.RateLimitStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)
		store = middleware.NewRedisRateLimitStore(client,
			middleware.WithStoreMetrics(httpMetrics),
			middleware.WithStoreLogger(logger))
		healthCfg.RedisChecker = health.NewRedisChecker(client)
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		err := runner.Start(ctx, jobs.Job{
			Type:     jobs.JobTypeRateLimitCleanup,
			Interval: cleanupInterval,
			Run: func(context.Context) error {
				mem.Cleanup()
				return nil
			},
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("schedule rate limit cleanup: %w", err)
		}
		store = mem
	}

	svc := recommend.NewService(repo, engine, logger)
	recommendLimit := middleware.DefaultRecommendLimit()
	recommendLimit.RequestsPerWindow = cfg.RateLimitPerMinute

	router := api.NewRouter(api.RouterConfig{
		Recommendations: api.NewRecommendationHandlers(svc, logger),
		Colleges:        api.NewCollegeHandlers(svc, logger),
		Health:          api.NewHealthHandlers(healthCfg),
		Metrics:         middleware.RequireToken(cfg.MetricsToken)(middleware.MetricsHandler(a.registry)),
		RecommendLimiter: middleware.RateLimiter(store, recommendLimit,
			middleware.PrefixKeyFunc("ratelimit:recommend", middleware.IPKeyFunc()), httpMetrics),
		Version: version,
	})

	// RequestID -> Tracing -> HTTPMetrics -> Logging -> router
	var handler http.Handler = router
	handler = middleware.Logging(logger)(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Tracing(api.ServiceName)(handler)
	a.handler = middleware.RequestID(handler)

	return a, nil
}

// catalogReloadJob re-reads the seed file into mem. A file that fails to
// parse leaves the current catalog serving.
func catalogReloadJob(mem *college.InMemoryRepository, path string, interval time.Duration, logger *slog.Logger) jobs.Job {
	return jobs.Job{
		Type:     jobs.JobTypeCatalogReload,
		Interval: interval,
		Timeout:  interval,
		Run: func(ctx context.Context) error {
			records, err := college.ReadJSON(path)
			if err != nil {
				return err
			}
			if err := mem.Replace(records); err != nil {
				return err
			}
			logger.InfoContext(ctx, "catalog reloaded", "path", path, "colleges", len(records))
			return nil
		},
	}
}
