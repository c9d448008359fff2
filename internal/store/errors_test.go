package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// canceledTimeout looks like a network timeout but carries a caller cancellation.
type canceledTimeout struct{}

func (canceledTimeout) Error() string   { return "timeout: context canceled" }
func (canceledTimeout) Timeout() bool   { return true }
func (canceledTimeout) Temporary() bool { return false }
func (canceledTimeout) Unwrap() error   { return context.Canceled }

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: UniqueViolationCode}, ErrConstraintViolation},
		{"foreign key violation", &pgconn.PgError{Code: ForeignKeyViolationCode}, ErrConstraintViolation},
		{"check violation", &pgconn.PgError{Code: CheckViolationCode}, ErrConstraintViolation},
		{"not null violation", &pgconn.PgError{Code: NotNullViolationCode}, ErrConstraintViolation},
		{"too many connections", &pgconn.PgError{Code: "53300"}, ErrConnectionUnavailable},
		{"connection failure", &pgconn.PgError{Code: "08006"}, ErrConnectionUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrConnectionUnavailable},
		{"syntax error", &pgconn.PgError{Code: "42601"}, ErrQueryFailed},
		{"deadline", context.DeadlineExceeded, ErrConnectionUnavailable},
		{"closed pool", puddle.ErrClosedPool, ErrConnectionUnavailable},
		{"wrapped closed pool", fmt.Errorf("acquire: %w", puddle.ErrClosedPool), ErrConnectionUnavailable},
		{"canceled", context.Canceled, ErrQueryFailed},
		{"canceled reported as timeout", canceledTimeout{}, ErrQueryFailed},
		{"anything else", errors.New("boom"), ErrQueryFailed},
	}
	for _, tc := range cases {
		t.Run("Should classify "+tc.name, func(t *testing.T) {
			err := translate("op", tc.err)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.kind)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("Should return nil for nil", func(t *testing.T) {
		assert.NoError(t, translate("op", nil))
	})

	t.Run("Should not wrap an already classified error twice", func(t *testing.T) {
		first := translate("inner", pgx.ErrNoRows)
		second := translate("outer", first)
		assert.Same(t, first, second)
	})

	t.Run("Should carry the violated constraint name", func(t *testing.T) {
		err := translate("create post", &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "posts_slug_key"})
		var se *Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "posts_slug_key", se.Constraint)
		assert.Equal(t, "create post", se.Op)
		assert.Contains(t, err.Error(), "create post: constraint violation (posts_slug_key)")
	})
}

func TestAsPgError(t *testing.T) {
	t.Run("Should unwrap nested pg errors", func(t *testing.T) {
		pe, ok := AsPgError(fmt.Errorf("outer: %w", &pgconn.PgError{Code: "23505"}))
		require.True(t, ok)
		assert.Equal(t, "23505", pe.Code)
	})

	t.Run("Should report false for other errors", func(t *testing.T) {
		_, ok := AsPgError(errors.New("plain"))
		assert.False(t, ok)
	})
}
