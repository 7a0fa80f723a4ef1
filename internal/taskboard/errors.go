// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard

import (
	"errors"

	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/validate"
)

// ErrNotFound is wrapped by repositories when a row does not exist.
var ErrNotFound = errors.New("not found")

// Error codes returned by Service.
const (
	CodeValidationFailed = validate.CodeValidationFailed
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL"
)

func errNotFound(kind string) error {
	return oops.Code(CodeNotFound).With("kind", kind).Errorf("this %s does not exist", kind)
}

func errForbidden(kind string) error {
	return oops.Code(CodeForbidden).With("kind", kind).Errorf("you're not authorized to access this %s", kind)
}

func errLabelConflict() error {
	return oops.Code(CodeConflict).Errorf("a label already exists with this name")
}

func internal(operation string, err error) error {
	return oops.Code(CodeInternal).With("operation", operation).Wrap(err)
}
