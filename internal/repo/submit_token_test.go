package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/planner-admin/internal/domain"
)

func TestSubmitToken_ClaimOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tok, err := CreateSubmitToken(ctx, db, "item-type:create", time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(tok.Token) != 36 {
		t.Fatalf("expected uuid token, got %q", tok.Token)
	}

	if err := ClaimSubmitToken(ctx, db, tok.Token, "item-type:rename", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("claim with wrong form: want ErrNotFound, got %v", err)
	}
	if err := ClaimSubmitToken(ctx, db, tok.Token, "item-type:create", time.Now().UTC()); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := ClaimSubmitToken(ctx, db, tok.Token, "item-type:create", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second claim: want ErrNotFound, got %v", err)
	}
	if err := ClaimSubmitToken(ctx, db, "", "item-type:create", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank claim: want ErrNotFound, got %v", err)
	}
}

func TestSubmitToken_ExpiredIsRejectedAndPurged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tok, err := CreateSubmitToken(ctx, db, "f", time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	later := time.Now().UTC().Add(2 * time.Minute)
	if err := ClaimSubmitToken(ctx, db, tok.Token, "f", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired claim: want ErrNotFound, got %v", err)
	}

	n, err := PurgeExpiredSubmitTokens(ctx, db, later)
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
}

func TestSubmitToken_DuplicatePrimaryKey(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	row := &domain.SubmitToken{Token: "00000000-0000-0000-0000-000000000001", Form: "f", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	dup := &domain.SubmitToken{Token: row.Token, Form: "f", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	err := db.Create(dup).Error
	if err == nil || !isUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}
