// Package services – DiagnosticsService
//
// DiagnosticsService exposes the failure journal written by the global error
// hook: paginated listings for the diagnostics page and the JSON API, lookup
// by correlation id, and retention.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/planner-admin/internal/domain"
	"github.com/tbourn/planner-admin/internal/repo"
)

// FailureRepo defines the repository contract required by DiagnosticsService.
type FailureRepo interface {
	CountFailures(ctx context.Context, db *gorm.DB, f repo.FailureFilter) (int64, error)
	ListFailuresPage(ctx context.Context, db *gorm.DB, f repo.FailureFilter, offset, limit int) ([]domain.FailureRecord, error)
	FindFailuresByCorrelation(ctx context.Context, db *gorm.DB, correlationID string) ([]domain.FailureRecord, error)
	FailureStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
	PurgeFailuresBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error)
}

// JournalSummary is the header of the diagnostics page.
type JournalSummary struct {
	Total  int64      `json:"total"`
	Latest *time.Time `json:"latest,omitempty"`
}

// DiagnosticsService reads and maintains the failure journal.
type DiagnosticsService struct {
	DB   *gorm.DB
	Repo FailureRepo
	// Retention bounds how long entries are kept by Purge. Zero keeps all.
	Retention time.Duration
}

// ListPage returns a page of failures matching f, newest first, and the total
// match count. Invalid page/pageSize fall back to 1 and 20.
func (s *DiagnosticsService) ListPage(ctx context.Context, f repo.FailureFilter, page, pageSize int) ([]domain.FailureRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountFailures(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.FailureRecord{}, 0, nil
	}
	items, err := s.Repo.ListFailuresPage(ctx, s.DB, f, offset, pageSize)
	return items, total, err
}

// ByCorrelation returns every failure recorded under correlationID.
func (s *DiagnosticsService) ByCorrelation(ctx context.Context, correlationID string) ([]domain.FailureRecord, error) {
	out, err := s.Repo.FindFailuresByCorrelation(ctx, s.DB, correlationID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrFailureNotFound
	}
	return out, err
}

// Summary returns the journal size and newest entry time.
func (s *DiagnosticsService) Summary(ctx context.Context) (JournalSummary, error) {
	n, latest, err := s.Repo.FailureStats(ctx, s.DB)
	if err != nil {
		return JournalSummary{}, err
	}
	return JournalSummary{Total: n, Latest: latest}, nil
}

// Purge drops entries older than Retention relative to now.
func (s *DiagnosticsService) Purge(ctx context.Context, now time.Time) (int64, error) {
	if s.Retention <= 0 {
		return 0, nil
	}
	return s.Repo.PurgeFailuresBefore(ctx, s.DB, now.Add(-s.Retention))
}
