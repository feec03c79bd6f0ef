// Package handlers implements the admin pages and the small JSON API.
//
// This file holds the response helpers. JSON endpoints fail with the
// ErrorResponse envelope through fail(); pages render through render(),
// which fills the layout fields (request id, queued toasts) before handing
// the data to the named template.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/http/middleware"
	"github.com/tbourn/planner-admin/internal/present"
)

// ErrorResponse is the error envelope returned by every JSON endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code"`
	// Human-readable message
	Message string `json:"message"`
}

// fail aborts with a JSON error envelope. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func requestID(c *gin.Context) string {
	if rid := middleware.RequestIDFrom(c); rid != "" {
		return rid
	}
	return c.Writer.Header().Get("X-Request-ID")
}

// pageData is the model shared by every page template. Error is the slot
// for the page's primary query, FormError the slot next to its mutation form.
type pageData struct {
	Title     string
	RequestID string
	Toasts    []present.Toast
	Notice    string
	Error     present.View
	FormError present.View
	Token     string
	Query     string
	Data      any
}

// pageStatus maps the primary query's failure to the page status: 200 when
// it succeeded, the upstream status for inline errors, 502 when the error
// was surfaced as a toast.
func pageStatus(err *apierr.Error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case err.IsInline():
		return err.Status
	default:
		return http.StatusBadGateway
	}
}

// render writes the named page. It drains the request's toast tray, so it
// must run after every query of the page has completed.
func render(c *gin.Context, status int, name string, d pageData) {
	d.RequestID = requestID(c)
	d.Toasts = present.TrayFrom(c.Request.Context()).Drain()
	c.HTML(status, name, d)
}

// renderError shows the generic error page for err.
func renderError(c *gin.Context, title string, err *apierr.Error) {
	render(c, pageStatus(err), "error.tmpl", pageData{Title: title, Error: present.Decide(err)})
}

// internalError logs err and shows the error page with 500. It covers local
// failures (journal, submit tokens) that never reach the query cache.
func internalError(c *gin.Context, title string, err error) {
	middleware.LoggerFrom(c).Error().Err(err).Msg("page failed")
	render(c, http.StatusInternalServerError, "error.tmpl", pageData{
		Title:  title,
		Notice: "An internal error occurred.",
	})
}

// NotFound answers unmatched routes: JSON under /api/, the error page
// otherwise.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "route not found")
		return
	}
	renderError(c, "Not found", &apierr.Error{Status: http.StatusNotFound, Message: "page not found"})
}

// MethodNotAllowed answers a known path with the wrong method.
func MethodNotAllowed(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		fail(c, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
		return
	}
	renderError(c, "Not allowed", &apierr.Error{Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
}
