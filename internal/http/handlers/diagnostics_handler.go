// Diagnostics endpoints.
//
// The failure journal is filled by the global query error hook. It is shown
// as a page and exposed as JSON for tooling:
//   - GET /diagnostics                            (page)
//   - GET /api/v1/diagnostics                     (list, paginated, ETag)
//   - GET /api/v1/diagnostics/:correlationId      (lookup)
//   - GET /api/v1/cache                           (query cache snapshot)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
	"github.com/tbourn/planner-admin/internal/repo"
	"github.com/tbourn/planner-admin/internal/services"
)

// failureKinds lists the filter choices on the diagnostics page.
var failureKinds = []string{
	string(apierr.KindNetwork),
	string(apierr.KindServer),
	string(apierr.KindValidation),
	string(apierr.KindNotFound),
	string(apierr.KindClient),
}

// ListFailuresResponse wraps a page of journal entries.
type ListFailuresResponse struct {
	Failures   []domain.FailureRecord  `json:"failures"`
	Summary    services.JournalSummary `json:"summary"`
	Pagination Pagination              `json:"pagination"`
}

// FailureLookupResponse lists the entries recorded for one correlation id.
type FailureLookupResponse struct {
	CorrelationID string                 `json:"correlation_id"`
	Failures      []domain.FailureRecord `json:"failures"`
}

// CacheResponse is the query cache snapshot.
type CacheResponse struct {
	Entries []query.Snapshot `json:"entries"`
	Count   int              `json:"count"`
}

// diagnosticsView is the model of diagnostics.tmpl.
type diagnosticsView struct {
	ListFailuresResponse
	Kinds []string
}

// failureFilter reads kind, presentation and since from the query string.
func failureFilter(c *gin.Context) (repo.FailureFilter, error) {
	f := repo.FailureFilter{
		Kind:         strings.TrimSpace(c.Query("kind")),
		Presentation: strings.TrimSpace(c.Query("presentation")),
	}
	if s := strings.TrimSpace(c.Query("since")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, fmt.Errorf("since must be RFC 3339: %w", err)
		}
		f.Since = t.UTC()
	}
	return f, nil
}

func (h *Handlers) failurePage(c *gin.Context) (ListFailuresResponse, error) {
	f, err := failureFilter(c)
	if err != nil {
		return ListFailuresResponse{}, err
	}
	page, pageSize := clampPagination(c)
	ctx := c.Request.Context()

	sum, err := h.diagnostics.Summary(ctx)
	if err != nil {
		return ListFailuresResponse{}, err
	}
	items, total, err := h.diagnostics.ListPage(ctx, f, page, pageSize)
	if err != nil {
		return ListFailuresResponse{}, err
	}
	return ListFailuresResponse{
		Failures:   items,
		Summary:    sum,
		Pagination: newPagination(page, pageSize, total),
	}, nil
}

// Diagnostics renders the failure journal page.
func (h *Handlers) Diagnostics(c *gin.Context) {
	resp, err := h.failurePage(c)
	if err != nil {
		internalError(c, "Diagnostics", err)
		return
	}
	render(c, http.StatusOK, "diagnostics.tmpl", pageData{
		Title: "Diagnostics",
		Query: c.Query("kind"),
		Data:  diagnosticsView{ListFailuresResponse: resp, Kinds: failureKinds},
	})
}

// ListFailures returns a page of the journal, newest first.
//
// A weak ETag derived from the filter, page, journal size and newest entry
// lets pollers get 304 Not Modified while nothing new was recorded.
func (h *Handlers) ListFailures(c *gin.Context) {
	f, err := failureFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	page, pageSize := clampPagination(c)

	sum, err := h.diagnostics.Summary(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeJournalFailed, "failed to read failure journal")
		return
	}
	var latest int64
	if sum.Latest != nil {
		latest = sum.Latest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"failures:%s:%s:%d:%d:%d:%d"`, f.Kind, f.Presentation, page, pageSize, sum.Total, latest)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	items, total, err := h.diagnostics.ListPage(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeJournalFailed, "failed to read failure journal")
		return
	}
	ok(c, http.StatusOK, ListFailuresResponse{
		Failures:   items,
		Summary:    sum,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetFailures returns every entry recorded under :correlationId.
func (h *Handlers) GetFailures(c *gin.Context) {
	cid := strings.TrimSpace(c.Param("correlationId"))
	if cid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "correlationId is required")
		return
	}
	items, err := h.diagnostics.ByCorrelation(c.Request.Context(), cid)
	switch {
	case errors.Is(err, services.ErrFailureNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no failures recorded for correlation id")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeJournalFailed, "failed to read failure journal")
		return
	}
	ok(c, http.StatusOK, FailureLookupResponse{CorrelationID: cid, Failures: items})
}

// CacheState returns a snapshot of every query cache entry.
func (h *Handlers) CacheState(c *gin.Context) {
	entries := h.cache.Snapshots()
	ok(c, http.StatusOK, CacheResponse{Entries: entries, Count: len(entries)})
}
