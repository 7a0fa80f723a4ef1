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

const refreshTokenColumns = `id, user_id, token_hash, expires_at, last_used_at, compromised_at, version, created_at`

// RefreshTokenRepository implements auth.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db store.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository.
func NewRefreshTokenRepository(db store.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token record. jwt_expires_at keeps the issued
// token's own expiry; expires_at is cut short when the record is consumed.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *auth.RefreshToken) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO refresh_tokens (`+refreshTokenColumns+`, jwt_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $4)
	`,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.LastUsedAt,
		token.CompromisedAt,
		token.Version,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_CREATE_FAILED").
			With("operation", "insert refresh token").
			With("user_id", token.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash finds the record for tokenHash owned by userID.
func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string, userID ulid.ULID) (*auth.RefreshToken, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+refreshTokenColumns+`
		FROM refresh_tokens
		WHERE token_hash = $1 AND user_id = $2
	`, tokenHash, userID.String())

	token, err := scanRefreshToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REFRESH_TOKEN_GET_FAILED").
			With("operation", "get refresh token by hash").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return token, nil
}

// MarkUsed consumes the record when it is unused, uncompromised, and still
// at version. Any other state is reported as ErrStaleVersion.
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, id ulid.ULID, version int, usedAt, expiresAt time.Time) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `
		UPDATE refresh_tokens
		SET last_used_at = $3, expires_at = $4, version = version + 1
		WHERE id = $1 AND version = $2
		  AND last_used_at IS NULL AND compromised_at IS NULL
	`, id.String(), version, usedAt, expiresAt)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_MARK_USED_FAILED").
			With("operation", "mark refresh token used").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REFRESH_TOKEN_STALE").
			With("id", id.String()).
			With("version", version).
			Wrap(auth.ErrStaleVersion)
	}
	return nil
}

// MarkCompromised flags the record. A record that is already compromised
// is left untouched.
func (r *RefreshTokenRepository) MarkCompromised(ctx context.Context, id ulid.ULID, at time.Time) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		UPDATE refresh_tokens
		SET compromised_at = $2, version = version + 1
		WHERE id = $1 AND compromised_at IS NULL
	`, id.String(), at)
	if err != nil {
		return oops.Code("REFRESH_TOKEN_MARK_COMPROMISED_FAILED").
			With("operation", "mark refresh token compromised").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

// DeleteByUser removes the live records of a user. Consumed and compromised
// records stay so a replay of an old token is still detected.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND last_used_at IS NULL AND compromised_at IS NULL
	`, userID.String())
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_FAILED").
			With("operation", "delete refresh tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteExpired removes uncompromised records whose issued token expired
// before the given time. A consumed record outlives its shortened expires_at
// until the token itself can no longer verify.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `
		DELETE FROM refresh_tokens
		WHERE jwt_expires_at < $1 AND compromised_at IS NULL
	`, before)
	if err != nil {
		return 0, oops.Code("REFRESH_TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired refresh tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*auth.RefreshToken, error) {
	var (
		token     auth.RefreshToken
		idStr     string
		userIDStr string
	)
	err := row.Scan(
		&idStr,
		&userIDStr,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.LastUsedAt,
		&token.CompromisedAt,
		&token.Version,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if token.ID, err = parseID(idStr, "refresh_token_id"); err != nil {
		return nil, err
	}
	if token.UserID, err = parseID(userIDStr, "user_id"); err != nil {
		return nil, err
	}
	token.ExpiresAt = token.ExpiresAt.UTC()
	token.CreatedAt = token.CreatedAt.UTC()
	token.LastUsedAt = utc(token.LastUsedAt)
	token.CompromisedAt = utc(token.CompromisedAt)
	return &token, nil
}

// Compile-time interface check.
var _ auth.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
