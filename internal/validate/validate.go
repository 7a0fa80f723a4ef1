// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package validate collects field-level input validation failures and turns
// them into a single VALIDATION_FAILED error.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CodeValidationFailed is the oops code of every error produced by Errors.Err.
const CodeValidationFailed = "VALIDATION_FAILED"

// MaxEmailLength is the longest address accepted by Email.
const MaxEmailLength = 254

// Errors maps a field name to the first problem found with it.
type Errors map[string]string

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Check records msg for field when ok is false.
func (e Errors) Check(ok bool, field, msg string) {
	if !ok {
		e.Add(field, msg)
	}
}

// Err returns nil when nothing was recorded, otherwise a VALIDATION_FAILED
// error carrying the field map under the "fields" context key.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	fields := make(map[string]string, len(e))
	for k, v := range e {
		fields[k] = v
	}
	return oops.Code(CodeValidationFailed).
		With("fields", fields).
		Errorf("validation failed")
}

// Text validates a free-text field: valid UTF-8, no control characters
// other than newline and tab, and a rune length within [minLen, maxLen].
// A minLen of zero makes the field optional.
func (e Errors) Text(field, value string, minLen, maxLen int) {
	if !utf8.ValidString(value) {
		e.Add(field, "must be valid UTF-8")
		return
	}
	n := utf8.RuneCountInString(value)
	switch {
	case minLen > 0 && strings.TrimSpace(value) == "":
		e.Add(field, "is required")
	case n < minLen:
		e.Add(field, fmt.Sprintf("must be at least %d characters", minLen))
	case n > maxLen:
		e.Add(field, fmt.Sprintf("must be at most %d characters", maxLen))
	case hasControlChars(value):
		e.Add(field, "cannot contain control characters")
	}
}

// Email validates a bare email address.
func (e Errors) Email(field, value string) {
	switch {
	case value == "":
		e.Add(field, "is required")
	case len(value) > MaxEmailLength:
		e.Add(field, fmt.Sprintf("must be at most %d characters", MaxEmailLength))
	case !IsEmail(value):
		e.Add(field, "must be a valid email address")
	}
}

// ID validates a ULID given as a string and returns it.
func (e Errors) ID(field, value string) ulid.ULID {
	if value == "" {
		e.Add(field, "is required")
		return ulid.ULID{}
	}
	id, err := ulid.ParseStrict(value)
	if err != nil {
		e.Add(field, "must be a valid id")
		return ulid.ULID{}
	}
	return id
}

// IsEmail reports whether s is a plain address with no display name.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return true
		}
	}
	return false
}
