// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package httpapi serves the Planwell REST API.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/observability"
	"github.com/planwell/planwell/internal/taskboard"
)

// Options configures a Server.
type Options struct {
	Auth  *auth.Service
	Board *taskboard.Service
	// Metrics is optional.
	Metrics *observability.Metrics
	Logger  *slog.Logger
	// Development adds internal error detail to responses.
	Development bool
	// AllowedOrigins are exact origins or glob patterns. Empty disables CORS.
	AllowedOrigins []string
	Version        string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server routes API requests to the auth and task board services.
type Server struct {
	auth    *auth.Service
	board   *taskboard.Service
	metrics *observability.Metrics
	logger  *slog.Logger
	dev     bool
	version string
	now     func() time.Time
	handler http.Handler
}

// New builds the router and middleware chain.
func New(opts Options) (*Server, error) {
	s := &Server{
		auth:    opts.Auth,
		board:   opts.Board,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		dev:     opts.Development,
		version: opts.Version,
		now:     opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	var h http.Handler = s.routes()
	h = s.recoverPanics(h)
	h = s.logRequests(h)
	if len(opts.AllowedOrigins) > 0 {
		c, err := newCORS(opts.AllowedOrigins)
		if err != nil {
			return nil, err
		}
		h = c.Handler(h)
	}
	s.handler = h
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observe)
	// Routes hang off the root router with full paths. A subrouter that only
	// mismatches on method would otherwise fall through to NotFound.
	r.NotFoundHandler = s.observeUnmatched(http.HandlerFunc(s.notFound))
	r.MethodNotAllowedHandler = s.observeUnmatched(http.HandlerFunc(s.methodNotAllowed))

	r.HandleFunc("/status", s.status).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/auth/signup", s.signUp).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/request-password-reset", s.requestPasswordReset).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/reset-password", s.resetPassword).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/auth/logout", s.authenticated(s.logout)).Methods(http.MethodPost)

	r.HandleFunc("/api/v1/users/me", s.authenticated(s.profile)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/users/me", s.authenticated(s.updateProfile)).Methods(http.MethodPut)

	r.HandleFunc("/api/v1/projects", s.authenticated(s.createProject)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/projects", s.authenticated(s.listProjects)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/projects/{id}", s.authenticated(s.getProject)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/projects/{id}", s.authenticated(s.updateProject)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/projects/{id}", s.authenticated(s.deleteProject)).Methods(http.MethodDelete)

	r.HandleFunc("/api/v1/lists", s.authenticated(s.createList)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/lists", s.authenticated(s.listLists)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/lists/{id}", s.authenticated(s.getList)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/lists/{id}", s.authenticated(s.updateList)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/lists/{id}", s.authenticated(s.deleteList)).Methods(http.MethodDelete)

	r.HandleFunc("/api/v1/tasks", s.authenticated(s.createTask)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/tasks", s.authenticated(s.listTasks)).Methods(http.MethodGet)
	// Registered before /{id} so the literal paths win.
	r.HandleFunc("/api/v1/tasks/add-label", s.authenticated(s.addTaskLabel)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/tasks/remove-label", s.authenticated(s.removeTaskLabel)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/tasks/{id}", s.authenticated(s.getTask)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/tasks/{id}", s.authenticated(s.updateTask)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/tasks/{id}", s.authenticated(s.deleteTask)).Methods(http.MethodDelete)

	r.HandleFunc("/api/v1/labels", s.authenticated(s.createLabel)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/labels", s.authenticated(s.listLabels)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/labels/{id}", s.authenticated(s.updateLabel)).Methods(http.MethodPut)
	r.HandleFunc("/api/v1/labels/{id}", s.authenticated(s.deleteLabel)).Methods(http.MethodDelete)

	return r
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		Status:  statusSuccess,
		Message: "OK",
		Data: map[string]any{
			"timestamp": s.now().UTC(),
			"version":   s.version,
			"ip":        r.RemoteAddr,
			"url":       r.URL.RequestURI(),
		},
	})
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		Status:  statusError,
		Message: "Not Found: " + r.URL.Path,
		Error:   &apiError{Code: "ROUTE_NOT_FOUND"},
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Status:  statusError,
		Message: "Method not allowed",
		Error:   &apiError{Code: "METHOD_NOT_ALLOWED"},
	})
}
