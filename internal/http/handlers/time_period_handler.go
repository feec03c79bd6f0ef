// Time period HTTP handlers and the home page.
//
// This file exposes:
//   - GET /                      (home, links to the sections)
//   - GET /time-periods          (list, ?q= filters by name)
//   - GET /time-periods/{id}     (detail)
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/present"
	"github.com/tbourn/planner-admin/internal/utils"
)

// ListTimePeriods renders GET /time-periods.
func (h *Handlers) ListTimePeriods(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	res := h.timePeriods.Search(c.Request.Context(), q)
	render(c, pageStatus(res.Err), "time_periods.tmpl", pageData{
		Title: "time periods",
		Error: present.Decide(res.Err),
		Query: q,
		Data:  shown(res),
	})
}

// GetTimePeriod renders GET /time-periods/:id.
func (h *Handlers) GetTimePeriod(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		renderError(c, "Time period", apierr.Invalid("id must be a positive integer", nil))
		return
	}
	res := h.timePeriods.Get(c.Request.Context(), id)
	title := "Time period " + strconv.FormatInt(id, 10)
	if res.OK() {
		title = res.Value.Name
	}
	render(c, pageStatus(res.Err), "time_period.tmpl", pageData{
		Title: title,
		Error: present.Decide(res.Err),
		Data:  shown(res),
	})
}

// Home renders the landing page.
func (h *Handlers) Home(c *gin.Context) {
	render(c, http.StatusOK, "home.tmpl", pageData{Title: "Home"})
}
