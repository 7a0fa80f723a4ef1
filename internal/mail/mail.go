// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/samber/oops"
)

// Template names.
const (
	TemplatePasswordReset             = "password_reset"
	TemplatePasswordResetConfirmation = "password_reset_confirmation"
)

//go:embed templates/*.html templates/*.txt
var templatesFS embed.FS

// Message is a single outgoing email. Data is passed to the named template.
type Message struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Rendered holds both bodies of a rendered message.
type Rendered struct {
	HTML string
	Text string
}

// Renderer executes the embedded templates.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_PARSE_FAILED").With("kind", "html").Wrap(err)
	}
	text, err := texttemplate.ParseFS(templatesFS, "templates/*.txt")
	if err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_PARSE_FAILED").With("kind", "text").Wrap(err)
	}
	return &Renderer{html: html, text: text}, nil
}

// Render executes the HTML and plain text variants of the named template.
func (r *Renderer) Render(name string, data map[string]any) (*Rendered, error) {
	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_RENDER_FAILED").With("template", name).Wrap(err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return nil, oops.Code("MAIL_TEMPLATE_RENDER_FAILED").With("template", name).Wrap(err)
	}
	return &Rendered{HTML: html.String(), Text: text.String()}, nil
}
