// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package postgres implements the auth repositories on PostgreSQL. Every
// statement runs through store.Conn so repositories join a transaction
// started by store.Transactor.
package postgres
