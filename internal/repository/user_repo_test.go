package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"openlingua/internal/model"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	t.Run("no rows becomes not found", func(t *testing.T) {
		require.ErrorIs(t, translate(pgx.ErrNoRows, "find"), model.ErrUserNotFound)
	})

	t.Run("unique violation becomes already exists", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_email_key"}
		err := translate(fmt.Errorf("exec: %w", pgErr), "create user")
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
		require.Contains(t, err.Error(), "users_email_key")
	})

	t.Run("malformed id becomes not found", func(t *testing.T) {
		err := translate(&pgconn.PgError{Code: pgInvalidTextFormat}, "find user by id")
		require.ErrorIs(t, err, model.ErrUserNotFound)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translate(cause, "update user")
		require.ErrorIs(t, err, cause)
		require.NotErrorIs(t, err, model.ErrUserNotFound)
		require.Contains(t, err.Error(), "update user")
	})
}
