// Package services – Catalog
//
// Catalog serves one backend collection ({id, name} resources such as item
// types and time periods) through the query cache. Reads are cached under
// (path) and (path, id); writes go through query.Mutate so a successful
// create, update or delete invalidates every cached entry of the collection.
package services

import (
	"context"

	"github.com/tbourn/planner-admin/internal/query"
	"github.com/tbourn/planner-admin/internal/search"
)

// ResourceClient is the subset of apiclient.Resource used by Catalog.
type ResourceClient[T any] interface {
	// Path is the collection path and cache resource name.
	Path() string
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id int64, payload any) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Catalog provides cached CRUD over one collection.
type Catalog[T any] struct {
	Client ResourceClient[T]
	Cache  *query.Cache
	// Name extracts the display name used by Search.
	Name func(T) string
}

// NewCatalog binds a Catalog to client and cache.
func NewCatalog[T any](client ResourceClient[T], cache *query.Cache, name func(T) string) *Catalog[T] {
	return &Catalog[T]{Client: client, Cache: cache, Name: name}
}

// List returns the whole collection.
func (s *Catalog[T]) List(ctx context.Context) query.Result[[]T] {
	return query.Query(ctx, s.Cache, query.Collection(s.Client.Path()), s.Client.List)
}

// Reload refetches the collection regardless of freshness.
func (s *Catalog[T]) Reload(ctx context.Context) query.Result[[]T] {
	return query.Refetch(ctx, s.Cache, query.Collection(s.Client.Path()), s.Client.List)
}

// Search returns the members whose name matches q. A blank q is List. On
// failure the last-known fallback is narrowed the same way.
func (s *Catalog[T]) Search(ctx context.Context, q string) query.Result[[]T] {
	res := s.List(ctx)
	if s.Name == nil {
		return res
	}
	if !res.OK() {
		if res.Fallback != nil {
			narrowed := search.Filter(*res.Fallback, q, s.Name)
			res.Fallback = &narrowed
		}
		return res
	}
	res.Value = search.Filter(res.Value, q, s.Name)
	return res
}

// Get returns one member.
func (s *Catalog[T]) Get(ctx context.Context, id int64) query.Result[T] {
	return query.Query(ctx, s.Cache, query.Member(s.Client.Path(), id), func(ctx context.Context) (T, error) {
		return s.Client.Get(ctx, id)
	})
}

// Create posts payload.
func (s *Catalog[T]) Create(ctx context.Context, payload any) query.Result[T] {
	return query.Mutate(ctx, s.Cache, s.Client.Path(), func(ctx context.Context) (T, error) {
		return s.Client.Create(ctx, payload)
	})
}

// Update replaces the writable fields of id with payload.
func (s *Catalog[T]) Update(ctx context.Context, id int64, payload any) query.Result[T] {
	return query.Mutate(ctx, s.Cache, s.Client.Path(), func(ctx context.Context) (T, error) {
		return s.Client.Update(ctx, id, payload)
	})
}

// Delete removes id.
func (s *Catalog[T]) Delete(ctx context.Context, id int64) query.Result[struct{}] {
	return query.Mutate(ctx, s.Cache, s.Client.Path(), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.Client.Delete(ctx, id)
	})
}
