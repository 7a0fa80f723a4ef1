// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogMailer struct {
	logger   *slog.Logger
	renderer *Renderer
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger, renderer *Renderer) *LogMailer {
	return &LogMailer{logger: logger, renderer: renderer}
}

// Send renders msg and logs the plain text body.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	body, err := m.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "email not sent, no SMTP host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
		"body", body.Text)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
