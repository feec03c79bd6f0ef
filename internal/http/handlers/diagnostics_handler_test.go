package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/http/middleware"
	"github.com/tbourn/planner-admin/internal/http/templates"
	"github.com/tbourn/planner-admin/internal/repo"
	"github.com/tbourn/planner-admin/internal/services"
)

type fakeDiagnostics struct {
	recs      []domain.FailureRecord
	lastQuery repo.FailureFilter
	lists     int
	err       error
}

func (f *fakeDiagnostics) ListPage(_ context.Context, flt repo.FailureFilter, page, pageSize int) ([]domain.FailureRecord, int64, error) {
	f.lists++
	f.lastQuery = flt
	if f.err != nil {
		return nil, 0, f.err
	}
	var match []domain.FailureRecord
	for _, r := range f.recs {
		if flt.Kind == "" || r.Kind == flt.Kind {
			match = append(match, r)
		}
	}
	from := (page - 1) * pageSize
	if from > len(match) {
		from = len(match)
	}
	to := from + pageSize
	if to > len(match) {
		to = len(match)
	}
	return match[from:to], int64(len(match)), nil
}

func (f *fakeDiagnostics) ByCorrelation(_ context.Context, id string) ([]domain.FailureRecord, error) {
	var out []domain.FailureRecord
	for _, r := range f.recs {
		if r.CorrelationID == id {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, services.ErrFailureNotFound
	}
	return out, nil
}

func (f *fakeDiagnostics) Summary(context.Context) (services.JournalSummary, error) {
	if f.err != nil {
		return services.JournalSummary{}, f.err
	}
	s := services.JournalSummary{Total: int64(len(f.recs))}
	if len(f.recs) > 0 {
		t := f.recs[0].CreatedAt
		s.Latest = &t
	}
	return s, nil
}

func newDiagnosticsRouter(d DiagnosticsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(Services{Diagnostics: d})
	r := gin.New()
	r.SetHTMLTemplate(templates.MustLoad())
	r.Use(middleware.RequestID(), middleware.Toasts())
	r.GET("/diagnostics", h.Diagnostics)
	r.GET("/api/v1/diagnostics", h.ListFailures)
	r.GET("/api/v1/diagnostics/:correlationId", h.GetFailures)
	return r
}

func sampleFailures() []domain.FailureRecord {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return []domain.FailureRecord{
		{ID: "a", CorrelationID: "c-1", Operation: "query", Status: 0, Kind: "network", Message: "request timed out", Presentation: domain.PresentedToast, CreatedAt: now},
		{ID: "b", CorrelationID: "c-2", Operation: "query", Status: 404, Kind: "not_found", Message: "not found", Presentation: domain.PresentedInline, CreatedAt: now.Add(-time.Minute)},
		{ID: "c", CorrelationID: "c-3", Operation: "mutation", Status: 500, Kind: "server", Message: "boom", Presentation: domain.PresentedToast, CreatedAt: now.Add(-2 * time.Minute)},
	}
}

func TestListFailures_PaginationAndETag(t *testing.T) {
	d := &fakeDiagnostics{recs: sampleFailures()}
	r := newDiagnosticsRouter(d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics?page=1&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp ListFailuresResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Failures) != 2 || resp.Pagination.Total != 3 || !resp.Pagination.HasNext || resp.Summary.Total != 3 {
		t.Fatalf("unexpected page: %+v", resp)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"failures:`) {
		t.Fatalf("etag = %q", etag)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics?page=1&page_size=2", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified || d.lists != 1 {
		t.Fatalf("expected 304 without listing, got %d lists=%d", w.Code, d.lists)
	}
}

func TestListFailures_FilterAndErrors(t *testing.T) {
	d := &fakeDiagnostics{recs: sampleFailures()}
	r := newDiagnosticsRouter(d)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics?kind=server&since=2026-10-01T00:00:00Z", nil))
	if w.Code != http.StatusOK || d.lastQuery.Kind != "server" || d.lastQuery.Since.IsZero() {
		t.Fatalf("filter not applied: %d %+v", w.Code, d.lastQuery)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics?since=yesterday", nil))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), ErrCodeBadRequest) {
		t.Fatalf("bad since: %d %s", w.Code, w.Body.String())
	}

	d.err = errors.New("disk full")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), ErrCodeJournalFailed) {
		t.Fatalf("journal error: %d %s", w.Code, w.Body.String())
	}
}

func TestGetFailures_ByCorrelation(t *testing.T) {
	r := newDiagnosticsRouter(&fakeDiagnostics{recs: sampleFailures()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/c-2", nil))
	var resp FailureLookupResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.CorrelationID != "c-2" || len(resp.Failures) != 1 || resp.Failures[0].Status != 404 {
		t.Fatalf("lookup: %d %+v", w.Code, resp)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/missing", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), ErrCodeNotFound) {
		t.Fatalf("missing: %d %s", w.Code, w.Body.String())
	}
}

func TestDiagnosticsPage(t *testing.T) {
	r := newDiagnosticsRouter(&fakeDiagnostics{recs: sampleFailures()})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/diagnostics?kind=network", nil))
	body := w.Body.String()
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, body)
	}
	if !strings.Contains(body, "3 recorded failures") || !strings.Contains(body, "<code>c-1</code>") || strings.Contains(body, "<code>c-3</code>") {
		t.Fatalf("unexpected page: %s", body)
	}
	if !strings.Contains(body, `<option value="network" selected>`) {
		t.Fatalf("expected selected kind: %s", body)
	}
}
