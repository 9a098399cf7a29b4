// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Catalog sources. At least one is required; the database wins when both are set.
	DatabaseURL     string `koanf:"database_url"`
	CatalogSeedPath string `koanf:"catalog_seed_path"` // JSON array of college records

	// CatalogReloadInterval re-reads the seed file periodically. Zero disables it.
	CatalogReloadInterval time.Duration `koanf:"catalog_reload_interval"`

	// Ranking calibration file (JSON). Empty uses built-in defaults.
	CalibrationPath string `koanf:"ranking_calibration_path"`

	// Redis, used for shared rate limits. Empty keeps limits in memory.
	RedisURL string `koanf:"redis_url"`

	// Rate limiting for POST /recommendations
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// Shared secret for /metrics. Empty leaves the endpoint open.
	MetricsToken string `koanf:"metrics_token"`

	// Tracing
	TracingEnabled    bool    `koanf:"tracing_enabled"`
	OTelExporterType  string  `koanf:"otel_exporter_type"`
	OTelEndpoint      string  `koanf:"otel_exporter_otlp_endpoint"`
	TracingSampleRate float64 `koanf:"tracing_sample_rate"`
}

// Configuration validation errors.
var (
	ErrMissingCatalog      = errors.New("DATABASE_URL or CATALOG_SEED_PATH is required")
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange      = errors.New("PORT must be between 1 and 65535")
	ErrInvalidRateLimit    = errors.New("RATE_LIMIT_PER_MINUTE must be > 0")
	ErrInvalidSampleRate   = errors.New("TRACING_SAMPLE_RATE must be between 0 and 1")
	ErrInvalidExporterType = errors.New("OTEL_EXPORTER_TYPE must be otlp-grpc or otlp-http")
	ErrInvalidBool         = errors.New("value must be a boolean")
	ErrInvalidReload       = errors.New("CATALOG_RELOAD_INTERVAL must not be negative")
)

// Default values for non-secret configuration.
const (
	DefaultPort               = 8080
	DefaultEnv                = "development"
	DefaultRateLimitPerMinute = 30
	DefaultOTelExporterType   = "otlp-http"
	DefaultTracingSampleRate  = 0.1
)

// Load merges the optional YAML file at configFilePath with the environment,
// environment first, and validates the result. An unreadable file is the
// only error returned without a Config.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	l := &loader{}
	cfg := &Config{
		// COLLEGEFIT_PORT wins over the PORT injected by hosting platforms.
		Port:                  lookup(l, k.Int("port"), DefaultPort, parsePort, "COLLEGEFIT_PORT", "PORT"),
		Env:                   lookup(l, k.String("env"), DefaultEnv, verbatim, "COLLEGEFIT_ENV", "ENV", "GO_ENV"),
		DatabaseURL:           lookup(l, k.String("database_url"), "", verbatim, "DATABASE_URL"),
		CatalogSeedPath:       lookup(l, k.String("catalog_seed_path"), "", verbatim, "CATALOG_SEED_PATH"),
		CatalogReloadInterval: lookup(l, k.Duration("catalog_reload_interval"), 0, time.ParseDuration, "CATALOG_RELOAD_INTERVAL"),
		CalibrationPath:       lookup(l, k.String("ranking_calibration_path"), "", verbatim, "RANKING_CALIBRATION_PATH"),
		RedisURL:              lookup(l, k.String("redis_url"), "", verbatim, "REDIS_URL"),
		RateLimitPerMinute:    lookup(l, k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute, strconv.Atoi, "RATE_LIMIT_PER_MINUTE"),
		MetricsToken:          lookup(l, k.String("metrics_token"), "", verbatim, "METRICS_TOKEN"),
		TracingEnabled:        lookup(l, k.Bool("tracing_enabled"), false, parseBool, "TRACING_ENABLED"),
		OTelExporterType:      lookup(l, k.String("otel_exporter_type"), DefaultOTelExporterType, verbatim, "OTEL_EXPORTER_TYPE"),
		OTelEndpoint:          lookup(l, k.String("otel_exporter_otlp_endpoint"), "", verbatim, "OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingSampleRate:     lookup(l, k.Float64("tracing_sample_rate"), DefaultTracingSampleRate, parseFloat, "TRACING_SAMPLE_RATE"),
	}

	return cfg, append(l.errs, cfg.Validate()...)
}

// loader collects parse errors so Load can report all of them at once.
type loader struct {
	errs []error
}

// lookup returns the first set variable among envKeys, parsed; else the
// file value when non-zero; else def.
func lookup[T comparable](l *loader, fileVal, def T, parse func(string) (T, error), envKeys ...string) T {
	var zero T
	for _, key := range envKeys {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		v, err := parse(strings.TrimSpace(raw))
		if err != nil {
			l.errs = append(l.errs, fmt.Errorf("%s=%q: %w", key, raw, err))
			return zero
		}
		return v
	}
	if fileVal != zero {
		return fileVal
	}
	return def
}

func verbatim(s string) (string, error) { return s, nil }

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidPort
	}
	return n, nil
}

// parseBool accepts true/false, 1/0, yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, ErrInvalidBool
}

// Validate reports every missing or out of range value.
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" && c.CatalogSeedPath == "" {
		errs = append(errs, ErrMissingCatalog)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, ErrInvalidRateLimit)
	}
	if c.CatalogReloadInterval < 0 {
		errs = append(errs, ErrInvalidReload)
	}
	if c.TracingEnabled {
		if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
			errs = append(errs, ErrInvalidSampleRate)
		}
		if c.OTelExporterType != "otlp-grpc" && c.OTelExporterType != "otlp-http" {
			errs = append(errs, ErrInvalidExporterType)
		}
	}

	return errs
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LogSummary returns the configuration as strings, secrets masked.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                        strconv.Itoa(c.Port),
		"env":                         c.Env,
		"database_url":                maskDatabaseURL(c.DatabaseURL),
		"catalog_seed_path":           valueOrNotSet(c.CatalogSeedPath),
		"catalog_reload_interval":     c.CatalogReloadInterval.String(),
		"ranking_calibration_path":    valueOrNotSet(c.CalibrationPath),
		"redis_url":                   maskDatabaseURL(c.RedisURL),
		"rate_limit_per_minute":       strconv.Itoa(c.RateLimitPerMinute),
		"metrics_token":               maskSecret(c.MetricsToken),
		"tracing_enabled":             strconv.FormatBool(c.TracingEnabled),
		"otel_exporter_type":          c.OTelExporterType,
		"otel_exporter_otlp_endpoint": valueOrNotSet(c.OTelEndpoint),
		"tracing_sample_rate":         strconv.FormatFloat(c.TracingSampleRate, 'f', -1, 64),
	}
}

func valueOrNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

// maskSecret keeps the first four characters of secrets of eight or more.
func maskSecret(s string) string {
	switch {
	case s == "":
		return "<not set>"
	case len(s) < 8:
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL hides the password of a postgres:// or redis:// URL.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return maskSecret(s)
	}
	at := strings.LastIndex(rest, "@")
	if at == -1 {
		return s
	}
	user, _, hasPassword := strings.Cut(rest[:at], ":")
	if !hasPassword {
		return s
	}
	return scheme + "://" + user + ":****" + rest[at:]
}
