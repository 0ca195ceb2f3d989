package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/mattn/go-sqlite3"
)

// ErrConflict reports a unique constraint violation raised by the store.
var ErrConflict = errors.New("storage: unique constraint violation")

// ConflictError keeps the driver error behind ErrConflict.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s repository error: %v: %v", e.Resource, ErrConflict, e.Err)
}

func (e *ConflictError) Unwrap() []error {
	return []error{ErrConflict, e.Err}
}

// IsUniqueViolation reports whether err is a unique constraint failure from
// postgres or sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// MapError wraps store errors with the resource name. Unique violations
// become *ConflictError.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return &ConflictError{Resource: resource, Err: err}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
