// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package mail

import (
	"context"

	"github.com/samber/oops"
	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SSL selects implicit TLS. Otherwise STARTTLS is used when offered.
	SSL bool
}

// sender abstracts the go-mail client for tests.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer sends rendered templates over SMTP.
type SMTPMailer struct {
	client   sender
	from     string
	renderer *Renderer
}

// NewSMTPMailer creates a mailer for cfg. No connection is made until Send.
func NewSMTPMailer(cfg SMTPConfig, renderer *Renderer) (*SMTPMailer, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	if cfg.SSL {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CLIENT_FAILED").With("host", cfg.Host).Wrap(err)
	}
	return newSMTPMailer(client, cfg.From, renderer), nil
}

func newSMTPMailer(client sender, from string, renderer *Renderer) *SMTPMailer {
	return &SMTPMailer{client: client, from: from, renderer: renderer}
}

// Send renders msg and delivers it.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("template", msg.Template).Wrap(err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*gomail.Msg, error) {
	body, err := m.renderer.Render(msg.Template, msg.Data)
	if err != nil {
		return nil, err
	}

	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, oops.Code("MAIL_INVALID_ADDRESS").With("from", m.from).Wrap(err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, oops.Code("MAIL_INVALID_ADDRESS").With("to", msg.To).Wrap(err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, body.Text)
	out.AddAlternativeString(gomail.TypeTextHTML, body.HTML)
	return out, nil
}

var _ Mailer = (*SMTPMailer)(nil)
