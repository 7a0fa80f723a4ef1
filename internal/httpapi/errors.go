// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi

import (
	"fmt"
	"net/http"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/taskboard"
	"github.com/planwell/planwell/internal/validate"
	"github.com/planwell/planwell/pkg/errutil"
)

// mapping is the response for one error code.
type mapping struct {
	status  int
	message string
}

var codeMappings = map[string]mapping{
	validate.CodeValidationFailed: {http.StatusBadRequest, "Invalid information sent"},
	auth.CodeConflict:             {http.StatusConflict, "An account with this email already exists"},
	auth.CodeInvalidCredentials: {http.StatusUnauthorized,
		"Invalid credentials. Please check your email and password and try again."},
	auth.CodeAccountBlocked: {http.StatusUnauthorized, "Your account is temporarily disabled."},
	auth.CodeInvalidToken: {http.StatusUnauthorized,
		"You must provide valid credentials to access this resource."},
	auth.CodeInvalidRefreshToken: {http.StatusUnauthorized, "Invalid refresh token."},
	auth.CodeInvalidResetToken:   {http.StatusBadRequest, "Invalid or expired password reset token."},
	auth.CodeNoSuchAccount:       {http.StatusNotFound, "There is no account with this email."},
	taskboard.CodeNotFound:       {http.StatusNotFound, "The requested resource does not exist."},
	taskboard.CodeForbidden:      {http.StatusForbidden, "You're not authorized to access this resource."},
	taskboard.CodeConflict:       {http.StatusConflict, "A label already exists with this name."},
}

var internalMapping = mapping{http.StatusInternalServerError, "Something went wrong. Please try again later."}

// resolve returns the status and public message for err. Ownership errors
// name the kind of resource when the error carries it.
func resolve(err error) (code string, m mapping) {
	code = errutil.Code(err)
	m, found := codeMappings[code]
	if !found {
		return code, internalMapping
	}
	kind, _ := errutil.ContextValue(err, "kind")
	if k, isString := kind.(string); isString && k != "" {
		switch code {
		case taskboard.CodeNotFound:
			m.message = fmt.Sprintf("This %s does not exist.", k)
		case taskboard.CodeForbidden:
			m.message = fmt.Sprintf("You're not authorized to access this %s.", k)
		}
	}
	return code, m
}

// writeError renders err in the error envelope. Server errors are logged
// with full context; their detail reaches the client only in development.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, m := resolve(err)

	body := &apiError{Code: code}
	if m.status == http.StatusInternalServerError {
		body.Code = "INTERNAL"
		errutil.LogErrorContext(r.Context(), s.logger, "request failed", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "code", code, "status", m.status)
	}
	if code == validate.CodeValidationFailed {
		if v, found := errutil.ContextValue(err, "fields"); found {
			body.Fields, _ = v.(map[string]string)
		}
	}
	if s.dev {
		body.Detail = err.Error()
	}

	if m.status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="planwell"`)
	}
	writeJSON(w, m.status, envelope{Status: statusError, Message: m.message, Error: body})
}
