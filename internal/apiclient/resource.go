package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tbourn/planner-admin/internal/domain"
)

// Resource is a CRUD client for one backend collection, e.g. /item-types.
// Values are always returned unwrapped from the response envelope.
type Resource[T any] struct {
	c    *Client
	path string
	noun string
}

// NewResource binds a Resource to path. noun is used in not-found messages
// ("item type not found").
func NewResource[T any](c *Client, path, noun string) *Resource[T] {
	return &Resource[T]{c: c, path: path, noun: noun}
}

// ItemTypes returns the client for /item-types.
func ItemTypes(c *Client) *Resource[domain.ItemType] {
	return NewResource[domain.ItemType](c, "/item-types", "item type")
}

// TimePeriods returns the client for /time-periods.
func TimePeriods(c *Client) *Resource[domain.TimePeriod] {
	return NewResource[domain.TimePeriod](c, "/time-periods", "time period")
}

// Path returns the collection path, which doubles as the cache resource name.
func (r *Resource[T]) Path() string { return r.path }

// List fetches the whole collection. A null payload yields an empty slice.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, call{
		method: http.MethodGet,
		route:  r.path,
		path:   r.path,
		out:    &out,
	}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches one resource by id.
func (r *Resource[T]) Get(ctx context.Context, id int64) (T, error) {
	var out T
	if err := checkID(id); err != nil {
		return out, err
	}
	if err := r.c.do(ctx, call{
		method:   http.MethodGet,
		route:    r.path + "/:id",
		path:     r.member(id),
		out:      &out,
		single:   true,
		notFound: r.noun + " not found",
	}); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Create posts a new resource. payload must be a struct carrying validate
// tags (see CreateItemType).
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	var out T
	if err := checkPayload(payload); err != nil {
		return out, err
	}
	if err := r.c.do(ctx, call{
		method:   http.MethodPost,
		route:    r.path,
		path:     r.path,
		in:       payload,
		out:      &out,
		single:   true,
		notFound: r.noun + " not returned",
	}); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Update replaces the writable fields of the resource with id.
func (r *Resource[T]) Update(ctx context.Context, id int64, payload any) (T, error) {
	var out T
	if err := checkID(id); err != nil {
		return out, err
	}
	if err := checkPayload(payload); err != nil {
		return out, err
	}
	if err := r.c.do(ctx, call{
		method:   http.MethodPut,
		route:    r.path + "/:id",
		path:     r.member(id),
		in:       payload,
		out:      &out,
		single:   true,
		notFound: r.noun + " not found",
	}); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Delete removes the resource with id. Any response body is ignored.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := r.c.do(ctx, call{
		method: http.MethodDelete,
		route:  r.path + "/:id",
		path:   r.member(id),
	}); err != nil {
		return err
	}
	return nil
}

func (r *Resource[T]) member(id int64) string {
	return r.path + "/" + strconv.FormatInt(id, 10)
}
