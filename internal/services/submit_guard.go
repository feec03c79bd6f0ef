package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/repo"
)

// TokenRepo defines the repository contract required by SubmitGuard.
type TokenRepo interface {
	CreateSubmitToken(ctx context.Context, db *gorm.DB, form string, ttl time.Duration) (*domain.SubmitToken, error)
	ClaimSubmitToken(ctx context.Context, db *gorm.DB, token, form string, now time.Time) error
	PurgeExpiredSubmitTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// SubmitGuard issues one-time tokens for mutation forms so a re-posted form
// (back button, double click) is not sent to the backend twice.
type SubmitGuard struct {
	DB   *gorm.DB
	Repo TokenRepo
	TTL  time.Duration
	Now  func() time.Time
}

func (g *SubmitGuard) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

// Issue returns a fresh token bound to form.
func (g *SubmitGuard) Issue(ctx context.Context, form string) (string, error) {
	ttl := g.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	for attempt := 0; ; attempt++ {
		tok, err := g.Repo.CreateSubmitToken(ctx, g.DB, form, ttl)
		if errors.Is(err, repo.ErrDuplicate) && attempt < 2 {
			continue
		}
		if err != nil {
			return "", err
		}
		return tok.Token, nil
	}
}

// Claim consumes token for form. It returns ErrDuplicateSubmit when the token
// cannot be claimed.
func (g *SubmitGuard) Claim(ctx context.Context, token, form string) error {
	err := g.Repo.ClaimSubmitToken(ctx, g.DB, token, form, g.now())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrDuplicateSubmit
	}
	return err
}

// Purge removes expired tokens.
func (g *SubmitGuard) Purge(ctx context.Context) (int64, error) {
	return g.Repo.PurgeExpiredSubmitTokens(ctx, g.DB, g.now())
}
