// Credit HTTP handlers.
//
// This file exposes the read-only credit pages:
//   - GET /credits                         (configured user and item type)
//   - GET /credits/{userId}/{itemTypeId}   (explicit sheet)
//   - GET /items/{id}                      (single credit item)
//
// Path parameters are validated before any backend call; failures follow the
// presentation router (inline for 4xx, toast plus 502 otherwise).
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/present"
	"github.com/tbourn/planner-admin/internal/services"
	"github.com/tbourn/planner-admin/internal/utils"
)

// Credits renders GET /credits for the configured user and item type.
func (h *Handlers) Credits(c *gin.Context) {
	uid, tid, err := h.credits.Defaults()
	if errors.Is(err, services.ErrNoCreditsUser) {
		render(c, http.StatusOK, "error.tmpl", pageData{
			Title:  "Credits",
			Notice: "No default user is configured. Open /credits/<userId>/<itemTypeId> instead.",
		})
		return
	}
	if err != nil {
		internalError(c, "Credits", err)
		return
	}
	h.renderSheet(c, uid, tid)
}

// CreditSheet renders GET /credits/:userId/:itemTypeId.
func (h *Handlers) CreditSheet(c *gin.Context) {
	uid := c.Param("userId")
	if _, err := uuid.Parse(uid); err != nil {
		renderError(c, "Credits", apierr.Invalid("userId must be a UUID", err))
		return
	}
	tid, perr := services.ParseItemTypeID(c.Param("itemTypeId"))
	if perr != nil {
		renderError(c, "Credits", perr)
		return
	}
	h.renderSheet(c, uid, tid)
}

func (h *Handlers) renderSheet(c *gin.Context, uid string, tid int64) {
	res := h.credits.Sheet(c.Request.Context(), uid, tid)
	render(c, pageStatus(res.Err), "credits.tmpl", pageData{
		Title: "Credits",
		Error: present.Decide(res.Err),
		Data:  shown(res),
	})
}

// GetItem renders GET /items/:id.
func (h *Handlers) GetItem(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		renderError(c, "Item", apierr.Invalid("id must be a positive integer", nil))
		return
	}
	res := h.credits.Item(c.Request.Context(), id)
	title := "Item " + strconv.FormatInt(id, 10)
	if res.OK() && res.Value.Name != "" {
		title = res.Value.Name
	}
	render(c, pageStatus(res.Err), "item.tmpl", pageData{
		Title: title,
		Error: present.Decide(res.Err),
		Data:  shown(res),
	})
}
