package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "API_BASE_URL", "CREDITS_USER_ID", "DB_PATH"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_DefaultsAreValid(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()

	if cfg.Backend.BaseURL != "http://localhost:9000" || cfg.Backend.Timeout != 10*time.Second || !cfg.Backend.ClientLogs {
		t.Fatalf("backend defaults unexpected: %+v", cfg.Backend)
	}
	if cfg.Query.StaleTime != 30*time.Second || cfg.Query.GCAfter != 10*time.Minute {
		t.Fatalf("query defaults unexpected: %+v", cfg.Query)
	}
	if cfg.Credits.UserID != "" || cfg.Credits.ItemTypeID != 1 {
		t.Fatalf("credits defaults unexpected: %+v", cfg.Credits)
	}
	if cfg.SubmitTokenTTL != time.Hour || cfg.APIBasePath != "/api/v1" || cfg.OTEL.ServiceName != "planner-admin" {
		t.Fatalf("defaults unexpected: %+v", cfg)
	}
}

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // normalizes to "release"

	t.Setenv("LOG_LEVEL", "warning") // normalizes to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "api/v2/")

	t.Setenv("DB_PATH", "db.sqlite")
	t.Setenv("SUBMIT_TOKEN_TTL", "15m")

	t.Setenv("API_BASE_URL", " https://planner.internal/api/ ")
	t.Setenv("API_TIMEOUT", "2500ms")
	t.Setenv("CLIENT_LOGS_ENABLED", "off")
	t.Setenv("QUERY_STALE_TIME", "5s")
	t.Setenv("QUERY_GC_AFTER", "1m")
	t.Setenv("CREDITS_USER_ID", "3fa85f64-5717-4562-b3fc-2c963f66afa6")
	t.Setenv("CREDITS_ITEM_TYPE_ID", "4")
	t.Setenv("JOURNAL_RETENTION", "0s")
	t.Setenv("JOURNAL_PURGE_INTERVAL", "10m")

	t.Setenv("RATE_RPS", "x")      // default 10
	t.Setenv("RATE_BURST", "nope") // default 20

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/api/v2" {
		t.Fatalf("logging unexpected: %+v", cfg)
	}
	if cfg.DBPath != "db.sqlite" || cfg.SubmitTokenTTL != 15*time.Minute {
		t.Fatalf("storage unexpected: %+v", cfg)
	}
	want := BackendConfig{BaseURL: "https://planner.internal/api", Timeout: 2500 * time.Millisecond, ClientLogs: false}
	if cfg.Backend != want {
		t.Fatalf("backend = %+v, want %+v", cfg.Backend, want)
	}
	if cfg.Query.StaleTime != 5*time.Second || cfg.Query.GCAfter != time.Minute {
		t.Fatalf("query unexpected: %+v", cfg.Query)
	}
	if cfg.Credits.UserID != "3fa85f64-5717-4562-b3fc-2c963f66afa6" || cfg.Credits.ItemTypeID != 4 {
		t.Fatalf("credits unexpected: %+v", cfg.Credits)
	}
	if cfg.Journal.Retention != 0 || cfg.Journal.PurgeEvery != 10*time.Minute {
		t.Fatalf("journal unexpected: %+v", cfg.Journal)
	}
	if cfg.RateRPS != 10 || cfg.RateBurst != 20 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name, key, value, want string
	}{
		{"invalid LOG_LEVEL", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"empty PORT", "PORT", "   ", "PORT must not be empty"},
		{"non-positive timeouts", "READ_TIMEOUT", "0s", "timeouts must be positive"},
		{"max header bytes", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"empty DB_PATH", "DB_PATH", "   ", "DB_PATH must not be empty"},
		{"submit token ttl", "SUBMIT_TOKEN_TTL", "0s", "SUBMIT_TOKEN_TTL"},
		{"relative base url", "API_BASE_URL", "planner.local", "API_BASE_URL"},
		{"ftp base url", "API_BASE_URL", "ftp://planner.local", "API_BASE_URL"},
		{"negative api timeout", "API_TIMEOUT", "-1s", "API_TIMEOUT"},
		{"negative stale time", "QUERY_STALE_TIME", "-1s", "QUERY_STALE_TIME"},
		{"credits user not uuid", "CREDITS_USER_ID", "jane", "CREDITS_USER_ID"},
		{"credits item type", "CREDITS_ITEM_TYPE_ID", "0", "CREDITS_ITEM_TYPE_ID"},
		{"negative retention", "JOURNAL_RETENTION", "-1h", "JOURNAL_RETENTION"},
		{"purge interval", "JOURNAL_PURGE_INTERVAL", "0s", "JOURNAL_PURGE_INTERVAL"},
		{"rate rps negative", "RATE_RPS", "-1", "RATE_RPS"},
		{"rate burst < 1", "RATE_BURST", "0", "RATE_BURST"},
		{"hsts max age negative", "HSTS_MAX_AGE", "-1s", "HSTS_MAX_AGE"},
		{"otel sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q error, got: %v", tc.want, err)
			}
		})
	}
}

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	t.Setenv("F_BAD", "nope")
	if getfloat("F_VALID", 0) != 3.14 || getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat")
	}
	t.Setenv("I_VALID", "42")
	t.Setenv("I_BAD", "x")
	if getint("I_VALID", 0) != 42 || getint("I_BAD", 7) != 7 {
		t.Fatalf("getint")
	}
	t.Setenv("D_VALID", "150ms")
	t.Setenv("D_BAD", "zzz")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond || getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		k := "B_T_" + strconv.Itoa(i)
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", " no ", "N", "off"} {
		k := "B_F_" + strconv.Itoa(i)
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
