// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/store"
)

const userColumns = `id, name, email, password_hash, blocked_at, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	db store.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db store.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		user.ID.String(),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.BlockedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if store.IsUniqueViolation(err) {
		return oops.Code(auth.CodeConflict).With("email", user.Email).Wrap(err)
	}
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE lower(email) = lower($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// UpdateName changes the display name.
func (r *UserRepository) UpdateName(ctx context.Context, id ulid.ULID, name string, at time.Time) error {
	return r.update(ctx, "update user name", id, `
		UPDATE users SET name = $2, updated_at = $3
		WHERE id = $1
	`, name, at)
}

// UpdatePassword replaces the password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error {
	return r.update(ctx, "update user password", id, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, passwordHash, at)
}

// Block disables the account. An earlier block timestamp is kept.
func (r *UserRepository) Block(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.update(ctx, "block user", id, `
		UPDATE users SET blocked_at = COALESCE(blocked_at, $2), updated_at = $2
		WHERE id = $1
	`, at)
}

// Unblock re-enables the account.
func (r *UserRepository) Unblock(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.update(ctx, "unblock user", id, `
		UPDATE users SET blocked_at = NULL, updated_at = $2
		WHERE id = $1
	`, at)
}

func (r *UserRepository) update(ctx context.Context, operation string, id ulid.ULID, sql string, args ...any) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, sql, append([]any{id.String()}, args...)...)
	if err != nil {
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", operation).
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user  auth.User
		idStr string
	)
	err := row.Scan(
		&idStr,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.BlockedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if user.ID, err = parseID(idStr, "user_id"); err != nil {
		return nil, err
	}
	user.BlockedAt = utc(user.BlockedAt)
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
