// Item type pages.
//
//   - GET  /item-types              list, ?q= filters by name
//   - POST /item-types              create
//   - GET  /item-types/:id          detail
//   - POST /item-types/:id          rename
//   - POST /item-types/:id/delete   delete
//
// Successful posts redirect (303) so a reload does not repeat the mutation.
// Failed posts re-render the page with the error in the form slot.
package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/http/middleware"
	"github.com/tbourn/planner-admin/internal/present"
	"github.com/tbourn/planner-admin/internal/services"
	"github.com/tbourn/planner-admin/internal/utils"
)

const formCreateItemType = "item-type:create"

func formItemType(id int64) string { return "item-type:" + strconv.FormatInt(id, 10) }

// CreateItemTypeForm is the body of POST /item-types.
type CreateItemTypeForm struct {
	ID    string `form:"id"`
	Name  string `form:"name"`
	Token string `form:"token"`
}

// RenameItemTypeForm is the body of POST /item-types/:id.
type RenameItemTypeForm struct {
	Name  string `form:"name"`
	Token string `form:"token"`
}

// ListItemTypes renders the item type list.
func (h *Handlers) ListItemTypes(c *gin.Context) {
	h.renderItemTypes(c, notice(c), present.View{})
}

func (h *Handlers) renderItemTypes(c *gin.Context, msg string, formErr present.View) {
	q := strings.TrimSpace(c.Query("q"))
	res := h.itemTypes.Search(c.Request.Context(), q)

	tok, err := h.issueToken(c, formCreateItemType)
	if err != nil {
		internalError(c, "Item types", err)
		return
	}

	status := pageStatus(res.Err)
	if formErr.Mode != present.ModeNone {
		status = formStatus(formErr)
	}
	render(c, status, "item_types.tmpl", pageData{
		Title:     "item types",
		Notice:    msg,
		Error:     present.Decide(res.Err),
		FormError: formErr,
		Token:     tok,
		Query:     q,
		Data:      shown(res),
	})
}

// CreateItemType handles the create form.
func (h *Handlers) CreateItemType(c *gin.Context) {
	var form CreateItemTypeForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderItemTypes(c, "", present.Decide(apierr.Invalid("invalid form body", err)))
		return
	}
	if !h.claimed(c, form.Token, formCreateItemType, "/item-types") {
		return
	}

	id, ok := utils.ParseID(form.ID)
	if !ok {
		h.renderItemTypes(c, "", present.Decide(apierr.Invalid("id must be a positive integer", nil)))
		return
	}
	res := h.itemTypes.CreateItemType(c.Request.Context(), id, form.Name)
	if !res.OK() {
		h.renderItemTypes(c, "", present.Decide(res.Err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/item-types/"+strconv.FormatInt(res.Value.ID, 10)+"?notice=created")
}

// GetItemType renders one item type with its rename and delete forms.
func (h *Handlers) GetItemType(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		renderError(c, "Item type", apierr.Invalid("id must be a positive integer", nil))
		return
	}
	h.renderItemType(c, id, notice(c), present.View{})
}

func (h *Handlers) renderItemType(c *gin.Context, id int64, msg string, formErr present.View) {
	res := h.itemTypes.Get(c.Request.Context(), id)

	tok, err := h.issueToken(c, formItemType(id))
	if err != nil {
		internalError(c, "Item type", err)
		return
	}

	title := "Item type " + strconv.FormatInt(id, 10)
	if res.OK() {
		title = res.Value.Name
	}
	status := pageStatus(res.Err)
	if formErr.Mode != present.ModeNone {
		status = formStatus(formErr)
	}
	render(c, status, "item_type.tmpl", pageData{
		Title:     title,
		Notice:    msg,
		Error:     present.Decide(res.Err),
		FormError: formErr,
		Token:     tok,
		Data:      shown(res),
	})
}

// RenameItemType handles the rename form.
func (h *Handlers) RenameItemType(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		renderError(c, "Item type", apierr.Invalid("id must be a positive integer", nil))
		return
	}
	var form RenameItemTypeForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderItemType(c, id, "", present.Decide(apierr.Invalid("invalid form body", err)))
		return
	}
	if !h.claimed(c, form.Token, formItemType(id), "/item-types/"+strconv.FormatInt(id, 10)) {
		return
	}

	res := h.itemTypes.Rename(c.Request.Context(), id, form.Name)
	if !res.OK() {
		h.renderItemType(c, id, "", present.Decide(res.Err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/item-types/"+strconv.FormatInt(id, 10)+"?notice=renamed")
}

// DeleteItemType handles the delete form.
func (h *Handlers) DeleteItemType(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		renderError(c, "Item type", apierr.Invalid("id must be a positive integer", nil))
		return
	}
	if !h.claimed(c, c.PostForm("token"), formItemType(id), "/item-types/"+strconv.FormatInt(id, 10)) {
		return
	}

	res := h.itemTypes.Delete(c.Request.Context(), id)
	if !res.OK() {
		h.renderItemType(c, id, "", present.Decide(res.Err))
		return
	}
	c.Redirect(http.StatusSeeOther, "/item-types?notice=deleted")
}

// claimed consumes the submit token. A reused token redirects back to
// target with the duplicate notice; it reports whether the caller may go on.
func (h *Handlers) claimed(c *gin.Context, token, form, target string) bool {
	err := h.claimToken(c, token, form)
	switch {
	case err == nil:
		return true
	case errors.Is(err, services.ErrDuplicateSubmit):
		middleware.LoggerFrom(c).Info().Str("form", form).Msg("duplicate form submission")
		u := url.URL{Path: target, RawQuery: "notice=duplicate"}
		c.Redirect(http.StatusSeeOther, u.String())
	default:
		internalError(c, "Submit", err)
	}
	return false
}

// formStatus is the status of a page re-rendered after a failed mutation.
func formStatus(v present.View) int {
	if v.Mode == present.ModeInline {
		return v.Status
	}
	return http.StatusBadGateway
}
