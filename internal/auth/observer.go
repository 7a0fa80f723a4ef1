// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package auth

// Observer receives auth events for metrics.
type Observer interface {
	// AuthEvent is called once per use case with the resulting error, nil on success.
	AuthEvent(operation string, err error)
	// RefreshTokenReuse is called each time a consumed refresh token is presented again.
	RefreshTokenReuse()
}

// NopObserver discards all events.
type NopObserver struct{}

// AuthEvent implements Observer.
func (NopObserver) AuthEvent(string, error) {}

// RefreshTokenReuse implements Observer.
func (NopObserver) RefreshTokenReuse() {}
