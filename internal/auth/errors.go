// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/validate"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrStaleVersion is returned by a conditional update that matched no row
// because another writer got there first.
var ErrStaleVersion = errors.New("stale version")

// Error codes surfaced by the auth core. The HTTP layer maps each to a status.
const (
	CodeValidationFailed    = validate.CodeValidationFailed
	CodeConflict            = "AUTH_CONFLICT"
	CodeInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	CodeAccountBlocked      = "AUTH_ACCOUNT_BLOCKED"
	CodeInvalidToken        = "AUTH_INVALID_TOKEN"
	CodeInvalidRefreshToken = "AUTH_INVALID_REFRESH_TOKEN"
	CodeInvalidResetToken   = "AUTH_INVALID_RESET_TOKEN"
	CodeNoSuchAccount       = "AUTH_NO_SUCH_ACCOUNT"
	CodeInternal            = "INTERNAL"
)

func errConflict() error {
	return oops.Code(CodeConflict).Errorf("an account with this email already exists")
}

func errInvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid email or password")
}

func errAccountBlocked() error {
	return oops.Code(CodeAccountBlocked).Errorf("account is temporarily disabled")
}

func errInvalidToken() error {
	return oops.Code(CodeInvalidToken).Errorf("invalid token")
}

func errInvalidRefreshToken() error {
	return oops.Code(CodeInvalidRefreshToken).Errorf("invalid refresh token")
}

func errInvalidResetToken() error {
	return oops.Code(CodeInvalidResetToken).Errorf("invalid or expired reset token")
}

func errNoSuchAccount() error {
	return oops.Code(CodeNoSuchAccount).Errorf("no account with this email")
}

// internal wraps an unexpected failure. The operation is kept in the error
// context for logs; callers only ever see the INTERNAL code.
func internal(operation string, err error) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}
