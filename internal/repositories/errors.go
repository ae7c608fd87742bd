package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports whether err is a unique constraint violation.
// Postgres surfaces these as SQLSTATE 23505; gorm additionally wraps some of
// them as ErrDuplicatedKey depending on driver version.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
