package store

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
)

var (
	ErrConnectionUnavailable = errors.New("connection unavailable")
	ErrConstraintViolation   = errors.New("constraint violation")
	ErrNotFound              = errors.New("not found")
	ErrQueryFailed           = errors.New("query failed")
	ErrMigrationFailed       = errors.New("migration failed")
	ErrPoolInitFailed        = errors.New("pool initialization failed")
	ErrInvalidPost           = errors.New("invalid post")
)

const (
	// UniqueViolationCode indicates a unique constraint violation.
	UniqueViolationCode = "23505"
	// ForeignKeyViolationCode indicates a foreign key violation.
	ForeignKeyViolationCode = "23503"
	// CheckViolationCode indicates a check constraint violation.
	CheckViolationCode = "23514"
	// NotNullViolationCode indicates a NOT NULL violation.
	NotNullViolationCode = "23502"
)

// Error is a storage failure tagged with one of the Err* kinds. errors.Is
// matches both the kind and the underlying driver error.
type Error struct {
	Op         string
	Kind       error
	Constraint string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Op + ": " + e.Kind.Error()
	if e.Constraint != "" {
		msg += " (" + e.Constraint + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// translate classifies a driver error into the repository taxonomy.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) || pgxscan.NotFound(err) {
		return &Error{Op: op, Kind: ErrNotFound, Err: err}
	}
	if pe, ok := AsPgError(err); ok {
		return &Error{Op: op, Kind: pgErrorKind(pe.Code), Constraint: pe.ConstraintName, Err: err}
	}
	if isUnavailable(err) {
		return &Error{Op: op, Kind: ErrConnectionUnavailable, Err: err}
	}
	return &Error{Op: op, Kind: ErrQueryFailed, Err: err}
}

func pgErrorKind(code string) error {
	switch {
	case strings.HasPrefix(code, "23"):
		return ErrConstraintViolation
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"):
		return ErrConnectionUnavailable
	case code == "57P01", code == "57P02", code == "57P03":
		return ErrConnectionUnavailable
	default:
		return ErrQueryFailed
	}
}

// isUnavailable reports failures to obtain or keep a connection. A caller
// cancellation is not one, even when pgconn reports it as a timeout.
func isUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, puddle.ErrClosedPool) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
