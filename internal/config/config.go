// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes client settings such
// as the backend endpoint, timeouts, logging, the state database path, event
// dispatch tuning, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "cartiq")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// EventsConfig tunes the analytics dispatcher.
type EventsConfig struct {
	QueueSize int     // EVENT_QUEUE_SIZE (>= 1)
	RPS       float64 // EVENT_RPS (tokens per second, 0 disables limiting)
	Burst     int     // EVENT_BURST (>= 1)
}

// Config holds all configuration values for the client.
type Config struct {
	// Backend
	APIURL      string        // base URL of the storefront backend
	HTTPTimeout time.Duration // per-request timeout, e.g. 15s
	UserAgent   string        // reported for device classification

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// State
	StateDBPath string // SQLite path for durable client state

	// Listings
	PageSize int // rows per listing page (>= 1)

	// Presentation
	Currency string // ISO 4217 code for price formatting

	// Analytics
	Events EventsConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Backend
		APIURL:      strings.TrimRight(getenv("CARTIQ_API_URL", "http://localhost:8080"), "/"),
		HTTPTimeout: getdur("HTTP_TIMEOUT", 15*time.Second),
		UserAgent:   getenv("CARTIQ_USER_AGENT", ""),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// State
		StateDBPath: getenv("STATE_DB_PATH", "cartiq.db"),

		// Listings
		PageSize: getint("PAGE_SIZE", 15),

		// Presentation
		Currency: strings.ToUpper(getenv("CURRENCY", "INR")),

		// Analytics
		Events: EventsConfig{
			QueueSize: getint("EVENT_QUEUE_SIZE", 256),
			RPS:       getfloat("EVENT_RPS", 0),
			Burst:     getint("EVENT_BURST", 10),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "cartiq"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return cfg, errors.New("CARTIQ_API_URL must be an http(s) URL")
	}
	if cfg.HTTPTimeout <= 0 {
		return cfg, errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	if strings.TrimSpace(cfg.StateDBPath) == "" {
		return cfg, errors.New("STATE_DB_PATH must not be empty")
	}
	if cfg.PageSize < 1 {
		return cfg, errors.New("PAGE_SIZE must be >= 1")
	}
	if len(cfg.Currency) != 3 {
		return cfg, errors.New("CURRENCY must be a 3-letter ISO 4217 code")
	}
	if cfg.Events.QueueSize < 1 {
		return cfg, errors.New("EVENT_QUEUE_SIZE must be >= 1")
	}
	if cfg.Events.RPS < 0 {
		return cfg, errors.New("EVENT_RPS must be >= 0")
	}
	if cfg.Events.Burst < 1 {
		return cfg, errors.New("EVENT_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
