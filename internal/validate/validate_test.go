// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package validate_test

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/validate"
	"github.com/planwell/planwell/pkg/errutil"
)

func TestErrors_Err(t *testing.T) {
	t.Run("empty is nil", func(t *testing.T) {
		assert.NoError(t, validate.Errors{}.Err())
	})

	t.Run("carries fields", func(t *testing.T) {
		v := validate.Errors{}
		v.Add("email", "is required")
		v.Add("email", "second message is ignored")
		err := v.Err()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, validate.CodeValidationFailed)
		errutil.AssertErrorContext(t, err, "fields", map[string]string{"email": "is required"})
	})
}

func TestErrors_Text(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		min     int
		max     int
		wantErr bool
	}{
		{"ok", "Groceries", 1, 100, false},
		{"optional empty", "", 0, 100, false},
		{"required empty", "", 1, 100, true},
		{"whitespace only", "   ", 1, 100, true},
		{"too long", strings.Repeat("a", 101), 1, 100, true},
		{"too short", "abc", 8, 32, true},
		{"control chars", "bad\x00name", 1, 100, true},
		{"newlines allowed", "line one\nline two", 0, 100, false},
		{"multibyte counts runes", strings.Repeat("é", 100), 1, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validate.Errors{}
			v.Text("field", tt.value, tt.min, tt.max)
			if tt.wantErr {
				assert.Contains(t, v, "field")
			} else {
				assert.Empty(t, v)
			}
		})
	}
}

func TestErrors_Email(t *testing.T) {
	valid := []string{"alice@example.com", "bob.smith+tag@mail.example.org"}
	invalid := []string{"", "alice", "alice@", "Alice <alice@example.com>", "alice@localhost", strings.Repeat("a", 250) + "@example.com"}

	for _, e := range valid {
		v := validate.Errors{}
		v.Email("email", e)
		assert.Empty(t, v, e)
	}
	for _, e := range invalid {
		v := validate.Errors{}
		v.Email("email", e)
		assert.Contains(t, v, "email", e)
	}
}

func TestErrors_ID(t *testing.T) {
	id := ulid.Make()

	v := validate.Errors{}
	assert.Equal(t, id, v.ID("id", id.String()))
	assert.Empty(t, v)

	v.ID("missing", "")
	v.ID("bad", "not-an-id")
	assert.Contains(t, v, "missing")
	assert.Contains(t, v, "bad")
}
