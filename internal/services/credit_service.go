// Package services – CreditService
//
// CreditService reads a user's credit items for one item type. Items are
// owned by the backend and never written from the admin UI, so only the
// cached read path is exposed.
package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/tbourn/planner-admin/internal/apierr"
	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/query"
)

// ItemsClient is the subset of apiclient.Items used by CreditService.
type ItemsClient interface {
	Path() string
	ListForUser(ctx context.Context, userID string, itemTypeID int64) ([]domain.Item, error)
	Get(ctx context.Context, id int64) (domain.Item, error)
}

// CreditSheet is one user's items for one item type.
type CreditSheet struct {
	UserID     string
	ItemTypeID int64
	Items      []domain.Item
	Total      float64
}

// CreditService provides cached reads of credit items.
type CreditService struct {
	Client ItemsClient
	Cache  *query.Cache

	// DefaultUserID and DefaultItemTypeID select the sheet shown by /credits.
	DefaultUserID     string
	DefaultItemTypeID int64
}

// Defaults returns the configured user and item type, or ErrNoCreditsUser.
func (s *CreditService) Defaults() (string, int64, error) {
	uid := strings.TrimSpace(s.DefaultUserID)
	if uid == "" {
		return "", 0, ErrNoCreditsUser
	}
	tid := s.DefaultItemTypeID
	if tid <= 0 {
		tid = 1
	}
	return uid, tid, nil
}

// Sheet returns the items of userID with itemTypeID and their total amount.
func (s *CreditService) Sheet(ctx context.Context, userID string, itemTypeID int64) query.Result[CreditSheet] {
	key := query.Sub(s.Client.Path(), userID, strconv.FormatInt(itemTypeID, 10))
	res := query.Query(ctx, s.Cache, key, func(ctx context.Context) ([]domain.Item, error) {
		return s.Client.ListForUser(ctx, userID, itemTypeID)
	})
	sheet := func(items []domain.Item) CreditSheet {
		return CreditSheet{UserID: userID, ItemTypeID: itemTypeID, Items: items, Total: total(items)}
	}
	if !res.OK() {
		out := query.Result[CreditSheet]{Err: res.Err}
		if res.Fallback != nil {
			fb := sheet(*res.Fallback)
			out.Fallback = &fb
		}
		return out
	}
	return query.Result[CreditSheet]{Value: sheet(res.Value), Cached: res.Cached}
}

// Item returns one item.
func (s *CreditService) Item(ctx context.Context, id int64) query.Result[domain.Item] {
	return query.Query(ctx, s.Cache, query.Member(s.Client.Path(), id), func(ctx context.Context) (domain.Item, error) {
		return s.Client.Get(ctx, id)
	})
}

// ParseItemTypeID parses a path segment into a positive id, reporting a 400
// error for anything else.
func ParseItemTypeID(raw string) (int64, *apierr.Error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Invalid("itemTypeId must be a positive integer", err)
	}
	return id, nil
}

func total(items []domain.Item) float64 {
	var t float64
	for _, it := range items {
		t += it.Amount
	}
	return t
}
