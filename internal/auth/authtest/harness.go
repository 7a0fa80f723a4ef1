// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package authtest

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/planwell/planwell/internal/auth"
)

// Test signing secrets. Both are longer than auth.MinSecretLength.
var (
	AccessSecret  = []byte("access-secret-for-tests-0123456789abcdef")
	RefreshSecret = []byte("refresh-secret-for-tests-0123456789abcdef")
)

// ResetBaseURL is the reset page used by harness services.
const ResetBaseURL = "http://localhost:3000/reset-password"

// Harness wires a complete auth.Service over in-memory storage and a fake clock.
type Harness struct {
	Store    *Store
	Clock    *Clock
	Hasher   auth.PasswordHasher
	Codec    *auth.TokenCodec
	Sessions *auth.SessionStore
	Resets   *auth.PasswordResetService
	Service  *auth.Service
	Mailer   *Mailer
	Observer *Observer
}

// NewHarness builds a Harness with the clock set to a fixed instant.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	h := &Harness{
		Store:    NewStore(),
		Clock:    NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		Mailer:   &Mailer{},
		Observer: &Observer{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	h.Hasher = hasher

	h.Codec, err = auth.NewTokenCodec(auth.TokenConfig{
		AccessSecret:  AccessSecret,
		RefreshSecret: RefreshSecret,
	}, auth.WithClock(h.Clock.Now))
	require.NoError(t, err)

	h.Sessions = auth.NewSessionStore(h.Codec, h.Store.Users(), h.Store.RefreshTokens(), h.Store,
		auth.WithSessionLogger(logger),
		auth.WithSessionObserver(h.Observer))

	h.Resets, err = auth.NewPasswordResetService(h.Store.Users(), h.Store.Resets(), hasher, h.Store,
		auth.ResetConfig{TTL: auth.DefaultResetTTL, BaseURL: ResetBaseURL},
		auth.WithResetClock(h.Clock.Now),
		auth.WithResetLogger(logger))
	require.NoError(t, err)

	h.Service = auth.NewAuthService(h.Store.Users(), hasher, h.Codec, h.Sessions, h.Resets, h.Mailer,
		auth.WithLogger(logger),
		auth.WithObserver(h.Observer),
		auth.WithServiceClock(h.Clock.Now))

	return h
}
