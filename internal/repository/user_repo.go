package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"openlingua/internal/model"
)

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextFormat = "22P02"
)

const userColumns = `id::text, email, password_hash, google_id, name, avatar, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
	if err != nil {
		return model.User{}, translate(err, "find user by id")
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return model.User{}, translate(err, "find user by email")
	}
	return u, nil
}

func (r *UserRepository) FindByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
	if err != nil {
		return model.User{}, translate(err, "find user by google id")
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, google_id, name, avatar, created_at, updated_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.PasswordHash, u.GoogleID, u.Name, u.Avatar, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return translate(err, "create user")
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET email = $2, password_hash = $3, google_id = $4, name = $5, avatar = $6, updated_at = $7
		 WHERE id = $1::uuid`,
		u.ID, u.Email, u.PasswordHash, u.GoogleID, u.Name, u.Avatar, time.Now().UTC())
	if err != nil {
		return translate(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.GoogleID, &u.Name, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// translate maps driver errors onto the store's own vocabulary so callers
// never see Postgres codes.
func translate(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrUserNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, model.ErrUserAlreadyExists, pgErr.ConstraintName)
		case pgInvalidTextFormat:
			return model.ErrUserNotFound
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
