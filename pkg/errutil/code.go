// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package errutil

import "github.com/samber/oops"

// Code returns the oops error code carried by err, or "" when err is not an
// oops error or carries no code. When codes are nested the innermost wins.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// HasCode reports whether err carries the given oops code.
func HasCode(err error, code string) bool {
	return err != nil && Code(err) == code
}

// ContextValue returns a value from the oops context of err.
func ContextValue(err error, key string) (any, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil, false
	}
	v, ok := oopsErr.Context()[key]
	return v, ok
}
