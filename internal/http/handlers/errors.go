// Package handlers defines the error codes returned by the JSON endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. HTML pages do not use them: page failures are rendered
// through the presentation router instead.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	ErrCodeJournalFailed = "journal_failed"
)
