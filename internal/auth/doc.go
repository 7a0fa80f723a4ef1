// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package auth implements account authentication for Planwell.
//
// # Components
//
//   - PasswordHasher - salted one-way password hashing (bcrypt or argon2id)
//   - TokenCodec - HS256 access and refresh tokens with separate secrets
//   - SessionStore - refresh token rotation with reuse detection
//   - PasswordResetService - single-use, time-limited reset links
//   - Service - sign-up, login, refresh, reset, and profile use cases
//
// # Refresh token rotation
//
// Every refresh token is recorded server-side by its SHA-256 hash. Redeeming
// a token consumes it and issues a new pair. Presenting a consumed token
// again means two parties hold it: the record is marked compromised and the
// account is blocked until an operator intervenes.
//
// Consuming a token is a conditional update on the record's version, so two
// concurrent redemptions of the same token cannot both succeed.
//
// Domain types should be created with their constructors (NewUser,
// NewPasswordReset). Repository implementations receive pre-validated values.
package auth
