package store

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConnection marks a transient connection-class failure. Fakes and tests
// wrap it to exercise the retry path; real pg errors are classified below.
var ErrConnection = errors.New("storage connection failure")

// isTransient reports whether err is a connection-class failure worth
// retrying. Anything else (uniqueness violations, bad SQL, scan errors)
// passes through to the caller unretried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnection) {
		return true
	}
	// Class 08 is connection_exception in Postgres.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08")
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// isUniqueViolation reports whether err is a duplicate-key error (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
