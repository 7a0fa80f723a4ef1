// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/validate"
)

// Field limits for account data.
const (
	MaxNameLength     = 100
	MinPasswordLength = 8
	MaxPasswordLength = 32

	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes = 72
)

// User is an account holder.
type User struct {
	ID           ulid.ULID
	Name         string
	Email        string
	PasswordHash string
	BlockedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates a User with a fresh ID. The email is normalized.
func NewUser(name, email, passwordHash string, now time.Time) (*User, error) {
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsBlocked reports whether the account has been disabled.
func (u *User) IsBlocked() bool {
	return u.BlockedAt != nil
}

// Principal returns the identity carried in this user's tokens.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword records password problems under field.
func ValidatePassword(v validate.Errors, field, password string) {
	v.Text(field, password, MinPasswordLength, MaxPasswordLength)
	if len(password) > maxPasswordBytes {
		v.Add(field, "is too long")
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. A taken email yields an AUTH_CONFLICT error.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateName changes the display name.
	UpdateName(ctx context.Context, id ulid.ULID, name string, at time.Time) error

	// UpdatePassword updates only the password hash for a user.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error

	// Block marks the account as disabled. Blocking an already blocked
	// account keeps the original timestamp.
	Block(ctx context.Context, id ulid.ULID, at time.Time) error

	// Unblock clears the disabled mark.
	Unblock(ctx context.Context, id ulid.ULID, at time.Time) error
}
