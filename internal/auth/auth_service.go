// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/mail"
	"github.com/planwell/planwell/internal/validate"
	"github.com/planwell/planwell/pkg/errutil"
)

// Operation names reported to the Observer.
const (
	OpSignUp        = "signup"
	OpLogin         = "login"
	OpRefresh       = "refresh"
	OpRequestReset  = "request_password_reset"
	OpResetPassword = "reset_password"
	OpLogout        = "logout"
)

// CodeNotFound is returned when the authenticated user no longer exists.
const CodeNotFound = "NOT_FOUND"

// dummyPassword is hashed once and verified against when the email is
// unknown, so a miss costs the same as a wrong password.
const dummyPassword = "planwell-timing-guard"

// SignUpInput is the payload of a sign-up request.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the structure of the input.
func (in SignUpInput) Validate() error {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxNameLength)
	v.Email("email", NormalizeEmail(in.Email))
	ValidatePassword(v, "password", in.Password)
	return v.Err()
}

// LoginInput is the payload of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the structure of the input.
func (in LoginInput) Validate() error {
	v := validate.Errors{}
	v.Email("email", NormalizeEmail(in.Email))
	ValidatePassword(v, "password", in.Password)
	return v.Err()
}

// RefreshInput is the payload of a refresh request.
type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks the structure of the input.
func (in RefreshInput) Validate() error {
	v := validate.Errors{}
	v.Check(strings.TrimSpace(in.RefreshToken) != "", "refresh_token", "is required")
	return v.Err()
}

// RequestResetInput is the payload of a password reset request.
type RequestResetInput struct {
	Email string `json:"email"`
}

// Validate checks the structure of the input.
func (in RequestResetInput) Validate() error {
	v := validate.Errors{}
	v.Email("email", NormalizeEmail(in.Email))
	return v.Err()
}

// ResetPasswordInput is the payload that completes a password reset.
type ResetPasswordInput struct {
	UserID   string `json:"id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate checks the structure of the input.
func (in ResetPasswordInput) Validate() error {
	v := validate.Errors{}
	v.ID("id", in.UserID)
	v.Check(in.Token != "", "token", "is required")
	ValidatePassword(v, "password", in.Password)
	return v.Err()
}

// UpdateProfileInput changes profile fields. Nil fields are left alone.
type UpdateProfileInput struct {
	Name *string `json:"name"`
}

// Validate checks the structure of the input.
func (in UpdateProfileInput) Validate() error {
	v := validate.Errors{}
	if in.Name != nil {
		v.Text("name", *in.Name, 1, MaxNameLength)
	}
	return v.Err()
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithObserver sets the observer notified after each use case.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		s.observer = o
	}
}

// WithServiceClock replaces the wall clock.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the account use cases on top of the hasher, the
// session store, and the reset flow.
type Service struct {
	users    UserRepository
	hasher   PasswordHasher
	codec    *TokenCodec
	sessions *SessionStore
	resets   *PasswordResetService
	mailer   mail.Mailer
	logger   *slog.Logger
	observer Observer
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new Service.
func NewAuthService(
	users UserRepository,
	hasher PasswordHasher,
	codec *TokenCodec,
	sessions *SessionStore,
	resets *PasswordResetService,
	mailer mail.Mailer,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		users:    users,
		hasher:   hasher,
		codec:    codec,
		sessions: sessions,
		resets:   resets,
		mailer:   mailer,
		logger:   slog.Default(),
		observer: NopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (session *Session, err error) {
	defer func() { s.observer.AuthEvent(OpSignUp, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)

	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, errConflict()
	case !errors.Is(err, ErrNotFound):
		return nil, internal("get user by email", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}

	user, err := NewUser(in.Name, email, passwordHash, s.now())
	if err != nil {
		return nil, internal("new user", err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errutil.HasCode(err, CodeConflict) {
			return nil, errConflict()
		}
		return nil, internal("create user", err)
	}

	tokens, err := s.sessions.IssueInitial(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.String())
	return &Session{User: user, Tokens: tokens}, nil
}

// Login checks credentials and signs the user in. An unknown email and a
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (session *Session, err error) {
	defer func() { s.observer.AuthEvent(OpLogin, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(in.Email))

	var targetHash string
	userExists := lookupErr == nil
	switch {
	case userExists:
		targetHash = user.PasswordHash
	case errors.Is(lookupErr, ErrNotFound):
		targetHash = s.timingGuardHash()
	default:
		return nil, internal("get user by email", lookupErr)
	}

	// Always verify so a missing account takes as long as a wrong password.
	valid, verifyErr := s.hasher.Verify(in.Password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, errInvalidCredentials()
		}
		return nil, internal("verify password", verifyErr)
	}
	if !userExists || !valid {
		return nil, errInvalidCredentials()
	}

	if user.IsBlocked() {
		return nil, errAccountBlocked()
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, in.Password)
	}

	tokens, err := s.sessions.IssueInitial(ctx, user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token.
func (s *Service) Refresh(ctx context.Context, in RefreshInput) (session *Session, err error) {
	defer func() { s.observer.AuthEvent(OpRefresh, err) }()

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.sessions.Redeem(ctx, in.RefreshToken)
}

// RequestPasswordReset emails a reset link to the account holder.
func (s *Service) RequestPasswordReset(ctx context.Context, in RequestResetInput) (err error) {
	defer func() { s.observer.AuthEvent(OpRequestReset, err) }()

	if err := in.Validate(); err != nil {
		return err
	}

	req, err := s.resets.RequestReset(ctx, in.Email)
	if err != nil {
		return err
	}

	err = s.mailer.Send(ctx, mail.Message{
		To:       req.User.Email,
		Subject:  "Reset your Planwell password",
		Template: mail.TemplatePasswordReset,
		Data: map[string]any{
			"Name":      req.User.Name,
			"Link":      req.Link,
			"ExpiresIn": s.resets.TTL().String(),
		},
	})
	if err != nil {
		return internal("send password reset email", err)
	}
	return nil
}

// ResetPassword completes a reset and notifies the account holder. A failed
// notification is logged and does not fail the reset.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (err error) {
	defer func() { s.observer.AuthEvent(OpResetPassword, err) }()

	if err := in.Validate(); err != nil {
		return err
	}
	userID, _ := ulid.ParseStrict(in.UserID) //nolint:errcheck // checked by Validate

	user, err := s.resets.CompleteReset(ctx, userID, in.Token, in.Password)
	if err != nil {
		return err
	}

	sendErr := s.mailer.Send(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Your Planwell password was changed",
		Template: mail.TemplatePasswordResetConfirmation,
		Data:     map[string]any{"Name": user.Name},
	})
	if sendErr != nil {
		errutil.LogErrorContext(ctx, s.logger, "failed to send password reset confirmation",
			oops.With("user_id", user.ID.String()).Wrap(sendErr))
	}
	return nil
}

// Logout revokes every refresh token of the principal.
func (s *Service) Logout(ctx context.Context, p Principal) (err error) {
	defer func() { s.observer.AuthEvent(OpLogout, err) }()
	return s.sessions.Revoke(ctx, p.ID)
}

// Authenticate verifies an access token and checks the account is usable.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	p, err := s.codec.VerifyAccessToken(accessToken)
	if err != nil {
		return Principal{}, err
	}
	user, err := s.users.GetByID(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return Principal{}, errInvalidToken()
	}
	if err != nil {
		return Principal{}, internal("get user", err)
	}
	if user.IsBlocked() {
		return Principal{}, errAccountBlocked()
	}
	return p, nil
}

// Profile returns the principal's account.
func (s *Service) Profile(ctx context.Context, p Principal) (*User, error) {
	user, err := s.users.GetByID(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeNotFound).Errorf("user not found")
	}
	if err != nil {
		return nil, internal("get user", err)
	}
	return user, nil
}

// UpdateProfile changes the principal's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, p Principal, in UpdateProfileInput) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Name != nil {
		err := s.users.UpdateName(ctx, p.ID, strings.TrimSpace(*in.Name), s.now())
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeNotFound).Errorf("user not found")
		}
		if err != nil {
			return nil, internal("update user name", err)
		}
	}
	return s.Profile(ctx, p)
}

// Unblock re-enables an account that was disabled after token reuse. Its
// remaining refresh tokens are revoked so the holder has to log in again.
func (s *Service) Unblock(ctx context.Context, email string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, errNoSuchAccount()
	}
	if err != nil {
		return nil, internal("get user by email", err)
	}
	if err := s.sessions.Revoke(ctx, user.ID); err != nil {
		return nil, err
	}
	if err := s.users.Unblock(ctx, user.ID, s.now()); err != nil {
		return nil, internal("unblock user", err)
	}
	user.BlockedAt = nil
	s.logger.InfoContext(ctx, "user unblocked", "user_id", user.ID.String())
	return user, nil
}

// PruneExpired removes expired refresh tokens and reset requests.
func (s *Service) PruneExpired(ctx context.Context) (tokens, resets int64, err error) {
	tokens, err = s.sessions.Prune(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}
	resets, err = s.resets.PruneExpired(ctx)
	if err != nil {
		return tokens, 0, err
	}
	return tokens, resets, nil
}

func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehash password", "user_id", user.ID.String(), "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to store rehashed password", "user_id", user.ID.String(), "error", err)
		return
	}
	user.PasswordHash = newHash
}

func (s *Service) timingGuardHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("failed to compute timing guard hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
