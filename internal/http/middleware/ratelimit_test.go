package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:1234"
	if got := KeyByIP()(c); got != "ip:203.0.113.7" {
		t.Fatalf("KeyByIP = %q", got)
	}
}

func TestNewRateLimiter_DefaultsAndReuse(t *testing.T) {
	rl := NewRateLimiter(1, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("expected coerced burst and default key fn")
	}
	a := rl.getVisitor("k")
	if b := rl.getVisitor("k"); a != b {
		t.Fatalf("expected bucket reuse")
	}
	if rl.Len() != 1 {
		t.Fatalf("Len = %d", rl.Len())
	}
}

func TestRateLimiter_getVisitor_GC(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	rl.ttl = time.Millisecond
	old := rl.getVisitor("old")
	rl.visitors["old"].lastSeen = time.Now().Add(-time.Hour)

	rl.cleanupN = 4999
	if fresh := rl.getVisitor("old"); fresh == old {
		t.Fatalf("expected idle bucket to be evicted and recreated")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter not reset: %d", rl.cleanupN)
	}
}

func TestRateLimiter_Handler_DenyJSONAndHTML(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, func(*gin.Context) string { return "same" })

	r := gin.New()
	r.Use(RequestID(), rl.Handler())
	r.GET("/p", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected 429 with Retry-After, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "rate_limited" || body["request_id"] == "" {
		t.Fatalf("unexpected body %+v", body)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Accept", "text/html")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "Too many requests") {
		t.Fatalf("expected html 429, got %d %s", w.Code, w.Body.String())
	}
}

func TestRateLimiter_SkipPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.0001, 1, nil).WithSkip(SkipPaths("/health"))

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d limited: %d", i, w.Code)
		}
	}
	if rl.Len() != 0 {
		t.Fatalf("skipped requests must not allocate buckets")
	}
}
