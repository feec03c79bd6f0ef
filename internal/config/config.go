// Package config loads the admin UI settings from environment variables,
// applying defaults and validation: server timeouts, logging, the planner
// backend, query cache tuning, the local journal, rate limiting and tracing.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "planner-admin")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BackendConfig points the admin UI at the planner REST backend.
type BackendConfig struct {
	BaseURL    string        // API_BASE_URL
	Timeout    time.Duration // API_TIMEOUT, per outbound request
	ClientLogs bool          // CLIENT_LOGS_ENABLED, ship failures to POST /client-logs
}

// QueryConfig tunes the query cache.
type QueryConfig struct {
	StaleTime time.Duration // QUERY_STALE_TIME, successful entries served without refetch
	GCAfter   time.Duration // QUERY_GC_AFTER, idle entries dropped after
}

// CreditsConfig selects the sheet shown at /credits.
type CreditsConfig struct {
	UserID     string // CREDITS_USER_ID (UUID, optional)
	ItemTypeID int64  // CREDITS_ITEM_TYPE_ID
}

// JournalConfig bounds the local failure journal.
type JournalConfig struct {
	Retention  time.Duration // JOURNAL_RETENTION, 0 keeps everything
	PurgeEvery time.Duration // JOURNAL_PURGE_INTERVAL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for the JSON routes

	// Local storage (failure journal, submit tokens)
	DBPath         string
	SubmitTokenTTL time.Duration

	// Planner backend and cache
	Backend BackendConfig
	Query   QueryConfig
	Credits CreditsConfig
	Journal JournalConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Local storage
		DBPath:         getenv("DB_PATH", "planner-admin.db"),
		SubmitTokenTTL: getdur("SUBMIT_TOKEN_TTL", time.Hour),

		Backend: BackendConfig{
			BaseURL:    strings.TrimRight(strings.TrimSpace(getenv("API_BASE_URL", "http://localhost:9000")), "/"),
			Timeout:    getdur("API_TIMEOUT", 10*time.Second),
			ClientLogs: getbool("CLIENT_LOGS_ENABLED", true),
		},
		Query: QueryConfig{
			StaleTime: getdur("QUERY_STALE_TIME", 30*time.Second),
			GCAfter:   getdur("QUERY_GC_AFTER", 10*time.Minute),
		},
		Credits: CreditsConfig{
			UserID:     strings.TrimSpace(getenv("CREDITS_USER_ID", "")),
			ItemTypeID: int64(getint("CREDITS_ITEM_TYPE_ID", 1)),
		},
		Journal: JournalConfig{
			Retention:  getdur("JOURNAL_RETENTION", 7*24*time.Hour),
			PurgeEvery: getdur("JOURNAL_PURGE_INTERVAL", time.Hour),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 10.0),
		RateBurst: getint("RATE_BURST", 20),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "planner-admin"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.SubmitTokenTTL <= 0 {
		return cfg, errors.New("SUBMIT_TOKEN_TTL must be > 0")
	}
	if u, err := url.Parse(cfg.Backend.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return cfg, errors.New("API_BASE_URL must be an absolute http(s) URL")
	}
	if cfg.Backend.Timeout < 0 {
		return cfg, errors.New("API_TIMEOUT must be >= 0")
	}
	if cfg.Query.StaleTime < 0 || cfg.Query.GCAfter < 0 {
		return cfg, errors.New("QUERY_STALE_TIME and QUERY_GC_AFTER must be >= 0")
	}
	if cfg.Credits.UserID != "" {
		if _, err := uuid.Parse(cfg.Credits.UserID); err != nil {
			return cfg, errors.New("CREDITS_USER_ID must be a UUID")
		}
	}
	if cfg.Credits.ItemTypeID <= 0 {
		return cfg, errors.New("CREDITS_ITEM_TYPE_ID must be > 0")
	}
	if cfg.Journal.Retention < 0 {
		return cfg, errors.New("JOURNAL_RETENTION must be >= 0")
	}
	if cfg.Journal.PurgeEvery <= 0 {
		return cfg, errors.New("JOURNAL_PURGE_INTERVAL must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

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

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
