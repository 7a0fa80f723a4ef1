// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/validate"
)

// maxBodyBytes bounds request bodies. The largest legitimate body is a task
// with a full description.
const maxBodyBytes = 1 << 20

const (
	statusSuccess = "success"
	statusError   = "error"
)

// envelope wraps every response body.
type envelope struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
	Detail string            `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// The status line is already sent, so an encode failure has no remedy.
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func ok(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Message: message, Data: data})
}

func created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Status: statusSuccess, Message: message, Data: data})
}

// decode reads a JSON body into dst. Malformed bodies are reported as a
// validation failure on the "body" field.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	msg := "must be a valid JSON object"
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		msg = "is required"
	case errors.As(err, &tooLarge):
		msg = "is too large"
	}
	return oops.Code(validate.CodeValidationFailed).
		With("fields", map[string]string{"body": msg}).
		Wrap(err)
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (ulid.ULID, error) {
	v := validate.Errors{}
	id := v.ID("id", mux.Vars(r)["id"])
	return id, v.Err()
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// principalHandler is a handler that runs for a verified user.
type principalHandler func(w http.ResponseWriter, r *http.Request, p auth.Principal)

// authenticated verifies the bearer token, rejects blocked or deleted
// accounts, and hands the principal to h.
func (s *Server) authenticated(h principalHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, found := bearerToken(r)
		if !found {
			s.writeError(w, r, oops.Code(auth.CodeInvalidToken).Errorf("missing bearer token"))
			return
		}
		p, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, p)
	}
}
