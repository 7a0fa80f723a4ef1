// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package authtest provides in-memory implementations of the auth
// repositories and collaborators for tests.
package authtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/auth"
)

// Store holds users, refresh tokens, and reset requests in memory. All three
// repositories share one lock so Transactor can make a group of calls atomic
// with respect to other goroutines.
type Store struct {
	mu     sync.Mutex
	users  map[ulid.ULID]auth.User
	tokens map[ulid.ULID]auth.RefreshToken
	// tokenExpiry is the ExpiresAt each token record was created with.
	tokenExpiry map[ulid.ULID]time.Time
	resets      map[ulid.ULID]auth.PasswordReset

	// Fail, when set, is consulted before every repository call. A non-nil
	// return is handed back to the caller instead of running the call.
	Fail func(op string) error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:       make(map[ulid.ULID]auth.User),
		tokens:      make(map[ulid.ULID]auth.RefreshToken),
		tokenExpiry: make(map[ulid.ULID]time.Time),
		resets:      make(map[ulid.ULID]auth.PasswordReset),
	}
}

type txKey struct{}

// InTransaction runs fn while holding the store lock. Nested repository
// calls made with the returned context skip locking.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

// Users returns the store as an auth.UserRepository.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// RefreshTokens returns the store as an auth.RefreshTokenRepository.
func (s *Store) RefreshTokens() *RefreshTokenRepository { return &RefreshTokenRepository{s: s} }

// Resets returns the store as an auth.PasswordResetRepository.
func (s *Store) Resets() *PasswordResetRepository { return &PasswordResetRepository{s: s} }

// UserRepository implements auth.UserRepository in memory.
type UserRepository struct{ s *Store }

// Create implements auth.UserRepository.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return oops.Code(auth.CodeConflict).With("email", user.Email).Errorf("email already registered")
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

// GetByID implements auth.UserRepository.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("users.GetByID"); err != nil {
		return nil, err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return &u, nil
}

// GetByEmail implements auth.UserRepository.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == auth.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
}

// UpdateName implements auth.UserRepository.
func (r *UserRepository) UpdateName(ctx context.Context, id ulid.ULID, name string, at time.Time) error {
	return r.update(ctx, "users.UpdateName", id, func(u *auth.User) {
		u.Name = name
		u.UpdatedAt = at
	})
}

// UpdatePassword implements auth.UserRepository.
func (r *UserRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string, at time.Time) error {
	return r.update(ctx, "users.UpdatePassword", id, func(u *auth.User) {
		u.PasswordHash = passwordHash
		u.UpdatedAt = at
	})
}

// Block implements auth.UserRepository.
func (r *UserRepository) Block(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.update(ctx, "users.Block", id, func(u *auth.User) {
		if u.BlockedAt == nil {
			u.BlockedAt = &at
		}
	})
}

// Unblock implements auth.UserRepository.
func (r *UserRepository) Unblock(ctx context.Context, id ulid.ULID, at time.Time) error {
	return r.update(ctx, "users.Unblock", id, func(u *auth.User) {
		u.BlockedAt = nil
		u.UpdatedAt = at
	})
}

func (r *UserRepository) update(ctx context.Context, op string, id ulid.ULID, fn func(*auth.User)) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail(op); err != nil {
		return err
	}
	u, ok := r.s.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	fn(&u)
	r.s.users[id] = u
	return nil
}

// RefreshTokenRepository implements auth.RefreshTokenRepository in memory.
type RefreshTokenRepository struct{ s *Store }

// Create implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *auth.RefreshToken) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.Create"); err != nil {
		return err
	}
	r.s.tokens[token.ID] = *token
	r.s.tokenExpiry[token.ID] = token.ExpiresAt
	return nil
}

// GetByTokenHash implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string, userID ulid.ULID) (*auth.RefreshToken, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.GetByTokenHash"); err != nil {
		return nil, err
	}
	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash && t.UserID == userID {
			return &t, nil
		}
	}
	return nil, oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
}

// MarkUsed implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, id ulid.ULID, version int, usedAt, expiresAt time.Time) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.MarkUsed"); err != nil {
		return err
	}
	t, ok := r.s.tokens[id]
	if !ok || t.LastUsedAt != nil || t.CompromisedAt != nil || t.Version != version {
		return oops.Code("REFRESH_TOKEN_STALE").With("id", id.String()).Wrap(auth.ErrStaleVersion)
	}
	t.LastUsedAt = &usedAt
	t.ExpiresAt = expiresAt
	t.Version++
	r.s.tokens[id] = t
	return nil
}

// MarkCompromised implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) MarkCompromised(ctx context.Context, id ulid.ULID, at time.Time) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.MarkCompromised"); err != nil {
		return err
	}
	t, ok := r.s.tokens[id]
	if !ok {
		return oops.Code("REFRESH_TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if t.CompromisedAt == nil {
		t.CompromisedAt = &at
		t.Version++
		r.s.tokens[id] = t
	}
	return nil
}

// DeleteByUser implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.DeleteByUser"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range r.s.tokens {
		if t.UserID == userID && t.LastUsedAt == nil && t.CompromisedAt == nil {
			r.s.deleteToken(id)
			n++
		}
	}
	return n, nil
}

// DeleteExpired implements auth.RefreshTokenRepository.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("tokens.DeleteExpired"); err != nil {
		return 0, err
	}
	var n int64
	for id, t := range r.s.tokens {
		if r.s.tokenExpiry[id].Before(before) && t.CompromisedAt == nil {
			r.s.deleteToken(id)
			n++
		}
	}
	return n, nil
}

func (s *Store) deleteToken(id ulid.ULID) {
	delete(s.tokens, id)
	delete(s.tokenExpiry, id)
}

// ForUser returns copies of all refresh token records of a user, oldest first.
func (r *RefreshTokenRepository) ForUser(userID ulid.ULID) []auth.RefreshToken {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []auth.RefreshToken
	for _, t := range r.s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out
}

// PasswordResetRepository implements auth.PasswordResetRepository in memory.
type PasswordResetRepository struct{ s *Store }

// Create implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *auth.PasswordReset) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("resets.Create"); err != nil {
		return err
	}
	r.s.resets[reset.ID] = *reset
	return nil
}

// GetByUser implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) GetByUser(ctx context.Context, userID ulid.ULID) (*auth.PasswordReset, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("resets.GetByUser"); err != nil {
		return nil, err
	}
	var latest *auth.PasswordReset
	for _, p := range r.s.resets {
		if p.UserID != userID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			p := p
			latest = &p
		}
	}
	if latest == nil {
		return nil, oops.Code("RESET_NOT_FOUND").With("user_id", userID.String()).Wrap(auth.ErrNotFound)
	}
	return latest, nil
}

// DeleteByUser implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) DeleteByUser(ctx context.Context, userID ulid.ULID) error {
	defer r.s.lock(ctx)()
	if err := r.s.fail("resets.DeleteByUser"); err != nil {
		return err
	}
	for id, p := range r.s.resets {
		if p.UserID == userID {
			delete(r.s.resets, id)
		}
	}
	return nil
}

// DeleteExpired implements auth.PasswordResetRepository.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	if err := r.s.fail("resets.DeleteExpired"); err != nil {
		return 0, err
	}
	var n int64
	for id, p := range r.s.resets {
		if p.ExpiresAt.Before(before) {
			delete(r.s.resets, id)
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored reset requests.
func (r *PasswordResetRepository) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.resets)
}

var (
	_ auth.Transactor              = (*Store)(nil)
	_ auth.UserRepository          = (*UserRepository)(nil)
	_ auth.RefreshTokenRepository  = (*RefreshTokenRepository)(nil)
	_ auth.PasswordResetRepository = (*PasswordResetRepository)(nil)
)
