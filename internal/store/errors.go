package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateExternalID is wrapped by RejectError when a record's external
// ID is already stored for its kind.
var ErrDuplicateExternalID = errors.New("duplicate external id")

// ErrUnknownReference is wrapped by RejectError when a record points at an
// account, tag or user that does not exist.
var ErrUnknownReference = errors.New("unknown reference")

// RejectError is returned when the store refuses a record. Message is
// written for end users.
type RejectError struct {
	Message string
	Err     error
}

func (e *RejectError) Error() string {
	return "record rejected: " + e.Message
}

func (e *RejectError) Unwrap() error { return e.Err }

// UserMessage returns the user-facing reason.
func (e *RejectError) UserMessage() string { return e.Message }

// isUniqueViolation reports whether err is a unique-constraint failure from
// either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
