// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// RefreshToken is the server-side record of one issued refresh token. Only
// the SHA-256 of the token is stored.
//
// A record with LastUsedAt set has been redeemed. Presenting it again is
// treated as theft. A record with CompromisedAt set is never changed again.
type RefreshToken struct {
	ID            ulid.ULID
	UserID        ulid.ULID
	TokenHash     string
	ExpiresAt     time.Time
	LastUsedAt    *time.Time
	CompromisedAt *time.Time
	Version       int
	CreatedAt     time.Time
}

// IsUsed reports whether the token has already been redeemed.
func (t *RefreshToken) IsUsed() bool {
	return t.LastUsedAt != nil
}

// IsCompromised reports whether reuse of the token has been detected.
func (t *RefreshToken) IsCompromised() bool {
	return t.CompromisedAt != nil
}

// IsExpiredAt reports whether the token was past its expiry at now.
func (t *RefreshToken) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// HashRefreshToken computes the lookup hash of a refresh token.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// RefreshTokenRepository manages refresh token persistence.
type RefreshTokenRepository interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, token *RefreshToken) error

	// GetByTokenHash finds the record for tokenHash that belongs to userID.
	GetByTokenHash(ctx context.Context, tokenHash string, userID ulid.ULID) (*RefreshToken, error)

	// MarkUsed consumes the record if it is still unused and at version.
	// It sets LastUsedAt and ExpiresAt and bumps Version. If no row matches
	// it returns an error wrapping ErrStaleVersion.
	MarkUsed(ctx context.Context, id ulid.ULID, version int, usedAt, expiresAt time.Time) error

	// MarkCompromised sets CompromisedAt unless it is already set.
	MarkCompromised(ctx context.Context, id ulid.ULID, at time.Time) error

	// DeleteByUser removes the user's records that are neither consumed nor
	// compromised.
	DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error)

	// DeleteExpired removes uncompromised records whose issued token expired
	// before the given time. A consumed record must survive until then, or a
	// replay of its token would no longer be recognised as reuse.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Session is a signed-in user together with the tokens just issued to them.
type Session struct {
	Tokens *TokenPair
	User   *User
}

// SessionOption customizes a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger sets the logger used for theft reports.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionStore) {
		s.logger = logger
	}
}

// WithSessionObserver sets the observer notified of token reuse.
func WithSessionObserver(o Observer) SessionOption {
	return func(s *SessionStore) {
		s.observer = o
	}
}

// SessionStore issues refresh tokens and rotates them on every use. A token
// presented after it was rotated marks the token compromised and blocks the
// owning account.
type SessionStore struct {
	codec    *TokenCodec
	users    UserRepository
	tokens   RefreshTokenRepository
	tx       Transactor
	logger   *slog.Logger
	observer Observer
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(codec *TokenCodec, users UserRepository, tokens RefreshTokenRepository, tx Transactor, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		codec:    codec,
		users:    users,
		tokens:   tokens,
		tx:       tx,
		logger:   slog.Default(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueInitial signs a fresh token pair for user and records the refresh token.
func (s *SessionStore) IssueInitial(ctx context.Context, user *User) (*TokenPair, error) {
	pair, err := s.codec.IssuePair(user.Principal())
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, s.newRecord(user.ID, pair)); err != nil {
		return nil, internal("store refresh token", err)
	}
	return pair, nil
}

// Redeem exchanges a refresh token for a new pair. The presented token is
// consumed. Every failure is reported as AUTH_INVALID_REFRESH_TOKEN.
func (s *SessionStore) Redeem(ctx context.Context, presented string) (*Session, error) {
	principal, err := s.codec.VerifyRefreshToken(presented)
	if err != nil {
		return nil, errInvalidRefreshToken()
	}

	record, err := s.tokens.GetByTokenHash(ctx, HashRefreshToken(presented), principal.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidRefreshToken()
	}
	if err != nil {
		return nil, internal("get refresh token", err)
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidRefreshToken()
	}
	if err != nil {
		return nil, internal("get user", err)
	}

	now := s.codec.now()

	if record.IsUsed() || record.IsCompromised() {
		if err := s.reportReuse(ctx, record, user, now); err != nil {
			return nil, err
		}
		return nil, errInvalidRefreshToken()
	}

	if record.IsExpiredAt(now) || user.IsBlocked() {
		return nil, errInvalidRefreshToken()
	}

	pair, err := s.codec.IssuePair(user.Principal())
	if err != nil {
		return nil, err
	}
	next := s.newRecord(user.ID, pair)

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokens.MarkUsed(ctx, record.ID, record.Version, now, now.Add(-time.Second)); err != nil {
			return err
		}
		return s.tokens.Create(ctx, next)
	})
	if errors.Is(err, ErrStaleVersion) {
		s.logger.WarnContext(ctx, "concurrent refresh token redemption lost",
			"user_id", user.ID.String(),
			"token_id", record.ID.String())
		return nil, errInvalidRefreshToken()
	}
	if err != nil {
		return nil, internal("rotate refresh token", err)
	}

	return &Session{Tokens: pair, User: user}, nil
}

// Revoke deletes every live refresh token of a user. Consumed and compromised
// records are kept so reuse of an old token still blocks the account.
func (s *SessionStore) Revoke(ctx context.Context, userID ulid.ULID) error {
	if _, err := s.tokens.DeleteByUser(ctx, userID); err != nil {
		return internal("revoke refresh tokens", err)
	}
	return nil
}

// Prune deletes uncompromised refresh tokens whose JWT expired before the
// given time.
func (s *SessionStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, before)
	if err != nil {
		return 0, internal("prune refresh tokens", err)
	}
	return n, nil
}

func (s *SessionStore) reportReuse(ctx context.Context, record *RefreshToken, user *User, now time.Time) error {
	s.observer.RefreshTokenReuse()
	s.logger.WarnContext(ctx, "refresh token reuse detected, blocking account",
		"user_id", user.ID.String(),
		"token_id", record.ID.String())

	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if !record.IsCompromised() {
			if err := s.tokens.MarkCompromised(ctx, record.ID, now); err != nil {
				return err
			}
		}
		return s.users.Block(ctx, user.ID, now)
	})
	if err != nil {
		return internal("mark refresh token compromised", err)
	}
	return nil
}

func (s *SessionStore) newRecord(userID ulid.ULID, pair *TokenPair) *RefreshToken {
	return &RefreshToken{
		ID:        ulid.Make(),
		UserID:    userID,
		TokenHash: HashRefreshToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
		Version:   1,
		CreatedAt: s.codec.now(),
	}
}
