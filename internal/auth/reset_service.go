// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetConfig configures the password reset flow.
type ResetConfig struct {
	// TTL is how long a reset link stays valid.
	TTL time.Duration
	// BaseURL is the page that receives token and id query parameters.
	BaseURL string
}

// ResetRequest is the outcome of RequestReset. Token is the plaintext that
// only ever leaves the process inside Link.
type ResetRequest struct {
	User      *User
	Token     string
	Link      string
	ExpiresAt time.Time
}

// ResetOption customizes a PasswordResetService.
type ResetOption func(*PasswordResetService)

// WithResetClock replaces the wall clock.
func WithResetClock(now func() time.Time) ResetOption {
	return func(s *PasswordResetService) {
		s.now = now
	}
}

// WithResetLogger sets the logger.
func WithResetLogger(logger *slog.Logger) ResetOption {
	return func(s *PasswordResetService) {
		s.logger = logger
	}
}

// PasswordResetService handles password reset operations.
type PasswordResetService struct {
	users   UserRepository
	resets  PasswordResetRepository
	hasher  PasswordHasher
	tx      Transactor
	ttl     time.Duration
	baseURL *url.URL
	now     func() time.Time
	logger  *slog.Logger
}

// NewPasswordResetService creates a new PasswordResetService.
func NewPasswordResetService(
	users UserRepository,
	resets PasswordResetRepository,
	hasher PasswordHasher,
	tx Transactor,
	cfg ResetConfig,
	opts ...ResetOption,
) (*PasswordResetService, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, oops.Code("RESET_INVALID_BASE_URL").
			With("base_url", cfg.BaseURL).
			Errorf("reset base URL must be absolute")
	}
	s := &PasswordResetService{
		users:   users,
		resets:  resets,
		hasher:  hasher,
		tx:      tx,
		ttl:     cfg.TTL,
		baseURL: base,
		now:     time.Now,
		logger:  slog.Default(),
	}
	if s.ttl <= 0 {
		s.ttl = DefaultResetTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns how long issued reset links stay valid.
func (s *PasswordResetService) TTL() time.Duration { return s.ttl }

// RequestReset starts a reset for the account with the given email. Any
// earlier request for the same account is discarded. An unknown email is
// reported as AUTH_NO_SUCH_ACCOUNT and nothing is stored.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*ResetRequest, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, errNoSuchAccount()
	}
	if err != nil {
		return nil, internal("get user by email", err)
	}

	token, err := GenerateResetToken()
	if err != nil {
		return nil, internal("generate reset token", err)
	}
	tokenHash, err := s.hasher.Hash(token)
	if err != nil {
		return nil, internal("hash reset token", err)
	}

	now := s.now()
	reset, err := NewPasswordReset(user.ID, tokenHash, now.Add(s.ttl), now)
	if err != nil {
		return nil, internal("new password reset", err)
	}

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.resets.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return s.resets.Create(ctx, reset)
	})
	if err != nil {
		return nil, internal("store password reset", err)
	}

	return &ResetRequest{
		User:      user,
		Token:     token,
		Link:      s.link(token, user.ID),
		ExpiresAt: reset.ExpiresAt,
	}, nil
}

// CompleteReset sets a new password if token matches the user's outstanding
// request. The request is consumed on success. Missing, expired, and
// mismatched tokens are all AUTH_INVALID_RESET_TOKEN.
func (s *PasswordResetService) CompleteReset(ctx context.Context, userID ulid.ULID, token, newPassword string) (*User, error) {
	reset, err := s.resets.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidResetToken()
	}
	if err != nil {
		return nil, internal("get password reset", err)
	}

	if reset.IsExpiredAt(s.now()) {
		if err := s.resets.DeleteByUser(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired password reset",
				"user_id", userID.String(), "error", err)
		}
		return nil, errInvalidResetToken()
	}

	if len(token) != resetTokenLength {
		return nil, errInvalidResetToken()
	}
	ok, err := s.hasher.Verify(token, reset.TokenHash)
	if err != nil {
		return nil, internal("verify reset token", err)
	}
	if !ok {
		return nil, errInvalidResetToken()
	}

	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidResetToken()
	}
	if err != nil {
		return nil, internal("get user", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, internal("hash password", err)
	}

	now := s.now()
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, userID, passwordHash, now); err != nil {
			return err
		}
		return s.resets.DeleteByUser(ctx, userID)
	})
	if err != nil {
		return nil, internal("update password", err)
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = now
	return user, nil
}

// PruneExpired removes reset requests that are already past their expiry.
func (s *PasswordResetService) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, internal("prune password resets", err)
	}
	return n, nil
}

func (s *PasswordResetService) link(token string, userID ulid.ULID) string {
	u := *s.baseURL
	q := u.Query()
	q.Set("token", token)
	q.Set("id", userID.String())
	u.RawQuery = q.Encode()
	return u.String()
}
