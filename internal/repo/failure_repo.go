// Package repo persists the admin UI's own state in SQLite. This file holds the
// failure journal: one row per normalized API failure seen by the global
// error hook.
//
// Functions follow the thin repository style: context-aware, no business
// logic, raw gorm errors propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/planner-admin/internal/domain"
)

// FailureFilter narrows journal listings. Zero values match everything.
type FailureFilter struct {
	Kind         string
	Presentation string
	Since        time.Time
}

func (f FailureFilter) apply(q *gorm.DB) *gorm.DB {
	if k := strings.TrimSpace(f.Kind); k != "" {
		q = q.Where("kind = ?", k)
	}
	if p := strings.TrimSpace(f.Presentation); p != "" {
		q = q.Where("presentation = ?", p)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	return q
}

// CreateFailure inserts rec, filling ID and CreatedAt when empty.
func CreateFailure(ctx context.Context, db *gorm.DB, rec *domain.FailureRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(rec).Error
}

// CountFailures returns the number of journal rows matching f.
func CountFailures(ctx context.Context, db *gorm.DB, f FailureFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx).Model(&domain.FailureRecord{})).Count(&n).Error
	return n, err
}

// ListFailuresPage returns a page of matching rows, newest first.
func ListFailuresPage(ctx context.Context, db *gorm.DB, f FailureFilter, offset, limit int) ([]domain.FailureRecord, error) {
	var out []domain.FailureRecord
	err := f.apply(db.WithContext(ctx).Model(&domain.FailureRecord{})).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// FindFailuresByCorrelation returns every row recorded for correlationID,
// oldest first, or ErrNotFound when there are none.
func FindFailuresByCorrelation(ctx context.Context, db *gorm.DB, correlationID string) ([]domain.FailureRecord, error) {
	if strings.TrimSpace(correlationID) == "" {
		return nil, ErrNotFound
	}
	var out []domain.FailureRecord
	if err := db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// FailureStats returns the row count and the newest CreatedAt, nil when the
// journal is empty.
func FailureStats(ctx context.Context, db *gorm.DB) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.FailureRecord{})
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}
	// avoid MAX() -> TEXT in SQLite
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// PurgeFailuresBefore deletes rows older than cutoff.
func PurgeFailuresBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.FailureRecord{})
	return res.RowsAffected, res.Error
}

// Journal adapts the failure functions to the present.Journal interface.
type Journal struct {
	db *gorm.DB
}

// NewJournal binds a Journal to db.
func NewJournal(db *gorm.DB) *Journal { return &Journal{db: db} }

// Record persists rec.
func (j *Journal) Record(ctx context.Context, rec domain.FailureRecord) error {
	if j == nil || j.db == nil {
		return errors.New("journal: no database")
	}
	return CreateFailure(ctx, j.db, &rec)
}
