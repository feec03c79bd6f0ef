package services

import (
	"context"
	"strings"

	"github.com/tbourn/planner-admin/internal/apiclient"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
)

// ItemTypeService is the item type catalog plus the typed write payloads.
type ItemTypeService struct {
	*Catalog[domain.ItemType]
}

// NewItemTypeService binds the service to client and cache.
func NewItemTypeService(client ResourceClient[domain.ItemType], cache *query.Cache) *ItemTypeService {
	return &ItemTypeService{
		Catalog: NewCatalog(client, cache, func(t domain.ItemType) string { return t.Name }),
	}
}

// CreateItemType creates an item type with an operator-chosen id. The name is
// trimmed and whitespace-collapsed; length and blank checks happen in the
// client before any request is sent.
func (s *ItemTypeService) CreateItemType(ctx context.Context, id int64, name string) query.Result[domain.ItemType] {
	return s.Create(ctx, apiclient.CreateItemType{ID: id, Name: normalizeName(name)})
}

// Rename changes the name of id.
func (s *ItemTypeService) Rename(ctx context.Context, id int64, name string) query.Result[domain.ItemType] {
	return s.Update(ctx, id, apiclient.RenameItemType{Name: normalizeName(name)})
}

// normalizeName trims whitespace and collapses inner runs to one space.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
