// Package repo implements the data persistence layer backed by GORM. This
// file defines the repository sentinel errors and the mapping of driver
// unique-constraint violations onto ErrDuplicate.
package repo

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a primary key or unique index collision.
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation recognizes UNIQUE/PRIMARY KEY failures. glebarez/sqlite
// often reports them as plain text rather than gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "constraint failed: primary key")
}
