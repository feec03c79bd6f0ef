package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
	"github.com/tbourn/planner-admin/internal/repo"
	"github.com/tbourn/planner-admin/internal/services"
	"github.com/tbourn/planner-admin/internal/utils"
)

//
// Service contracts
//

// ItemTypeService is the cached item type catalog.
type ItemTypeService interface {
	Search(ctx context.Context, q string) query.Result[[]domain.ItemType]
	Get(ctx context.Context, id int64) query.Result[domain.ItemType]
	CreateItemType(ctx context.Context, id int64, name string) query.Result[domain.ItemType]
	Rename(ctx context.Context, id int64, name string) query.Result[domain.ItemType]
	Delete(ctx context.Context, id int64) query.Result[struct{}]
}

// TimePeriodService is the cached, read-only time period catalog.
type TimePeriodService interface {
	Search(ctx context.Context, q string) query.Result[[]domain.TimePeriod]
	Get(ctx context.Context, id int64) query.Result[domain.TimePeriod]
}

// CreditService reads credit sheets and single items.
type CreditService interface {
	Defaults() (userID string, itemTypeID int64, err error)
	Sheet(ctx context.Context, userID string, itemTypeID int64) query.Result[services.CreditSheet]
	Item(ctx context.Context, id int64) query.Result[domain.Item]
}

// DiagnosticsService reads the failure journal.
type DiagnosticsService interface {
	ListPage(ctx context.Context, f repo.FailureFilter, page, pageSize int) ([]domain.FailureRecord, int64, error)
	ByCorrelation(ctx context.Context, correlationID string) ([]domain.FailureRecord, error)
	Summary(ctx context.Context) (services.JournalSummary, error)
}

// SubmitGuard issues and claims one-time form tokens.
type SubmitGuard interface {
	Issue(ctx context.Context, form string) (string, error)
	Claim(ctx context.Context, token, form string) error
}

// CacheInspector exposes the query cache state.
type CacheInspector interface {
	Snapshots() []query.Snapshot
}

// Services bundles the dependencies of Handlers. Submit may be nil, which
// disables double-submit protection.
type Services struct {
	ItemTypes   ItemTypeService
	TimePeriods TimePeriodService
	Credits     CreditService
	Diagnostics DiagnosticsService
	Submit      SubmitGuard
	Cache       CacheInspector
}

// Handlers groups the page and JSON endpoints.
type Handlers struct {
	itemTypes   ItemTypeService
	timePeriods TimePeriodService
	credits     CreditService
	diagnostics DiagnosticsService
	submit      SubmitGuard
	cache       CacheInspector
}

// New constructs Handlers bound to s.
func New(s Services) *Handlers {
	return &Handlers{
		itemTypes:   s.ItemTypes,
		timePeriods: s.TimePeriods,
		credits:     s.Credits,
		diagnostics: s.Diagnostics,
		submit:      s.Submit,
		cache:       s.Cache,
	}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: utils.TotalPages(total, pageSize),
		HasNext:    int64(page*pageSize) < total,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// shown picks what a page displays for r: the value on success, the
// last-known-good value on failure, or nothing.
func shown[T any](r query.Result[T]) any {
	if r.OK() {
		return r.Value
	}
	if r.Fallback != nil {
		return *r.Fallback
	}
	return nil
}

// notices are the flash messages a redirect may request via ?notice=.
var notices = map[string]string{
	"created":   "Item type created.",
	"renamed":   "Item type renamed.",
	"deleted":   "Item type deleted.",
	"duplicate": "This form was already submitted.",
}

func notice(c *gin.Context) string { return notices[c.Query("notice")] }

// issueToken returns a submit token for form, or "" when no guard is wired.
func (h *Handlers) issueToken(c *gin.Context, form string) (string, error) {
	if h.submit == nil {
		return "", nil
	}
	return h.submit.Issue(c.Request.Context(), form)
}

// claimToken consumes the posted token for form.
func (h *Handlers) claimToken(c *gin.Context, token, form string) error {
	if h.submit == nil {
		return nil
	}
	return h.submit.Claim(c.Request.Context(), token, form)
}
