// Package repo implements the data persistence layer backed by GORM. This
// file provides repository helpers for the SubmitToken model used to reject
// replayed mutation forms (back button, double click) before they reach the
// planner backend. Tokens are single use: a claim deletes the row.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/planner-admin/internal/domain"
)

// CreateSubmitToken issues a one-time token for form, valid for ttl.
// A colliding token yields ErrDuplicate.
func CreateSubmitToken(ctx context.Context, db *gorm.DB, form string, ttl time.Duration) (*domain.SubmitToken, error) {
	now := time.Now().UTC()
	tok := &domain.SubmitToken{
		Token:     uuid.NewString(),
		Form:      form,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(tok).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return tok, nil
}

// ClaimSubmitToken consumes token for form. It returns ErrNotFound when the
// token is unknown, expired, bound to another form, or was already claimed.
func ClaimSubmitToken(ctx context.Context, db *gorm.DB, token, form string, now time.Time) error {
	if strings.TrimSpace(token) == "" {
		return ErrNotFound
	}
	res := db.WithContext(ctx).
		Where("token = ? AND form = ? AND expires_at > ?", token, form, now).
		Delete(&domain.SubmitToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredSubmitTokens removes tokens that expired at or before now.
func PurgeExpiredSubmitTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.SubmitToken{})
	return res.RowsAffected, res.Error
}
