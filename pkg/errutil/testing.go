// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is an oops error with the given code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, Code(err))
}

// AssertErrorContext asserts that err is an oops error with the given context key/value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// AssertFieldError asserts that err is a validation error naming field.
func AssertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	v, ok := ContextValue(err, "fields")
	require.True(t, ok, "expected fields in error context")
	fields, ok := v.(map[string]string)
	require.True(t, ok, "expected map[string]string fields, got %T", v)
	assert.Contains(t, fields, field)
}
