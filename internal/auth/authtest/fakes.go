// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/planwell/planwell/internal/mail"
)

// Mailer records sent messages. Err, when set, is returned from Send and
// the message is not recorded.
type Mailer struct {
	mu   sync.Mutex
	Err  error
	sent []mail.Message
}

// Send implements mail.Mailer.
func (m *Mailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *Mailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Last returns the most recent message, or false if none was sent.
func (m *Mailer) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail.Message{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// Observer counts auth events.
type Observer struct {
	mu     sync.Mutex
	Events []Event
	Reuses int
}

// Event is one recorded AuthEvent call.
type Event struct {
	Operation string
	Err       error
}

// AuthEvent implements auth.Observer.
func (o *Observer) AuthEvent(operation string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, Event{Operation: operation, Err: err})
}

// RefreshTokenReuse implements auth.Observer.
func (o *Observer) RefreshTokenReuse() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Reuses++
}

// Clock is a settable clock for tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
