// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/auth/authtest"
	"github.com/planwell/planwell/internal/httpapi"
	"github.com/planwell/planwell/internal/observability"
	"github.com/planwell/planwell/internal/taskboard"
	"github.com/planwell/planwell/internal/taskboard/boardtest"
)

type testAPI struct {
	auth    *authtest.Harness
	board   *boardtest.Store
	metrics *observability.Metrics
	server  *httpapi.Server
}

type apiOption func(*httpapi.Options)

func development() apiOption {
	return func(o *httpapi.Options) { o.Development = true }
}

func origins(patterns ...string) apiOption {
	return func(o *httpapi.Options) { o.AllowedOrigins = patterns }
}

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	h := authtest.NewHarness(t)
	board := boardtest.NewStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	o := httpapi.Options{
		Auth:    h.Service,
		Board:   taskboard.NewService(board.Repositories(), taskboard.WithLogger(logger), taskboard.WithClock(h.Clock.Now)),
		Metrics: metrics,
		Logger:  logger,
		Version: "test",
		Now:     h.Clock.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	srv, err := httpapi.New(o)
	require.NoError(t, err)
	return &testAPI{auth: h, board: board, metrics: metrics, server: srv}
}

// response mirrors the JSON envelope.
type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
		Detail string            `json:"detail"`
	} `json:"error"`

	code   int
	header http.Header
}

func (r response) errorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.server.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	}
	resp.code = rec.Code
	resp.header = rec.Header()
	return resp
}

// data decodes the envelope data into T.
func data[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v), "data: %s", string(r.Data))
	return v
}

type session struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (a *testAPI) signUp(t *testing.T, email string) session {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.code, "signup: %+v", resp.Error)
	return data[session](t, resp)
}
