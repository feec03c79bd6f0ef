// Package domain defines the core persistence models for the application.
// The rows in this file belong to the admin UI itself (not the backend) and
// are mapped with GORM into the local SQLite database.
package domain

import "time"

// Presentation values stored on FailureRecord.
const (
	PresentedInline = "inline"
	PresentedToast  = "toast"
)

// FailureRecord is one normalized API failure observed by the global error
// hook. The journal lets an operator trace a toast or inline message back to
// the backend request through its correlation id.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - CorrelationID: X-Correlation-ID sent with the failing request (indexed).
//   - Operation: "query" or "mutation".
//   - CacheKey: query cache key the failure was recorded under.
//   - Method / URL: the outbound request.
//   - Status: upstream status code, 0 when no response was received.
//   - Kind: error class (network, validation, not_found, client, server).
//   - Presentation: how the UI surfaced it (inline or toast).
type FailureRecord struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	CorrelationID string    `json:"correlation_id" gorm:"type:varchar(64);index:idx_failures_correlation"`
	Operation     string    `json:"operation"      gorm:"type:varchar(16);not null;check:operation IN ('query','mutation')"`
	CacheKey      string    `json:"cache_key"      gorm:"type:varchar(255)"`
	Method        string    `json:"method"         gorm:"type:varchar(8)"`
	URL           string    `json:"url"            gorm:"type:text"`
	Status        int       `json:"status"         gorm:"not null"`
	Kind          string    `json:"kind"           gorm:"type:varchar(16);not null"`
	Message       string    `json:"message"        gorm:"type:text;not null"`
	Presentation  string    `json:"presentation"   gorm:"type:varchar(8);not null"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_failures_created"`
}

// TableName returns the database table name for FailureRecord.
func (FailureRecord) TableName() string { return "failures" }

// SubmitToken is a one-time token embedded in mutation forms. Claiming it a
// second time means the browser re-posted the same form.
type SubmitToken struct {
	Token     string    `gorm:"type:char(36);primaryKey"`
	Form      string    `gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (SubmitToken) TableName() string { return "submit_tokens" }
