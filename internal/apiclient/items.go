package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
)

// Items reads credit/debit items. The admin UI never writes items.
type Items struct {
	c *Client
}

// NewItems binds an Items client to c.
func NewItems(c *Client) *Items { return &Items{c: c} }

// Path is the cache resource name for items.
func (i *Items) Path() string { return "/items" }

// ListForUser returns the items owned by userID with the given item type
// (GET /items/:userId/:itemTypeId).
func (i *Items) ListForUser(ctx context.Context, userID string, itemTypeID int64) ([]domain.Item, error) {
	if err := validate.Var(userID, "required,uuid"); err != nil {
		return nil, apierr.Invalid("userId must be a UUID", err)
	}
	if err := checkID(itemTypeID); err != nil {
		return nil, err
	}
	var out []domain.Item
	if err := i.c.do(ctx, call{
		method: http.MethodGet,
		route:  "/items/:userId/:itemTypeId",
		path:   "/items/" + url.PathEscape(userID) + "/" + strconv.FormatInt(itemTypeID, 10),
		out:    &out,
	}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Item{}
	}
	return out, nil
}

// Get returns one item (GET /items/:id).
func (i *Items) Get(ctx context.Context, id int64) (domain.Item, error) {
	var out domain.Item
	if err := checkID(id); err != nil {
		return out, err
	}
	if err := i.c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/items/:id",
		path:     "/items/" + strconv.FormatInt(id, 10),
		out:      &out,
		single:   true,
		notFound: "item not found",
	}); err != nil {
		return domain.Item{}, err
	}
	return out, nil
}
