// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/gobwas/glob"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/samber/oops"
)

// routeUnmatched labels metrics for requests no route matched, so raw paths
// never become label values.
const routeUnmatched = "unmatched"

// logRequests logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		level := slog.LevelInfo
		if m.Code >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.LogAttrs(r.Context(), level, "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", m.Code),
			slog.Int64("bytes", m.Written),
			slog.Duration("duration", m.Duration),
			slog.String("remote_addr", r.RemoteAddr),
		)
	})
}

// recoverPanics turns a handler panic into a 500 response.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := oops.
			Code("PANIC").
			With("method", r.Method).
			With("path", r.URL.Path).
			Recover(func() { next.ServeHTTP(w, r) })
		if err == nil {
			return
		}
		if errors.Is(err, http.ErrAbortHandler) {
			panic(http.ErrAbortHandler)
		}
		s.writeError(w, r, err)
	})
}

// observe records request metrics under the matched route template. It runs
// as router middleware, after a route matched.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeUnmatched
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.measure(route, next, w, r)
	})
}

func (s *Server) observeUnmatched(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.measure(routeUnmatched, next, w, r)
	})
}

func (s *Server) measure(route string, next http.Handler, w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		next.ServeHTTP(w, r)
		return
	}
	m := httpsnoop.CaptureMetrics(next, w, r)
	s.metrics.ObserveRequest(r.Method, route, m.Code, m.Duration)
}

// newCORS allows the configured origins. Entries may be glob patterns where
// "*" matches within one DNS label, or a lone "*" for any origin.
func newCORS(origins []string) (*cors.Cors, error) {
	var (
		allowAll bool
		patterns []glob.Glob
	)
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
			continue
		}
		g, err := glob.Compile(strings.ToLower(o), '.')
		if err != nil {
			return nil, oops.Code("CORS_INVALID_ORIGIN").With("origin", o).Wrap(err)
		}
		patterns = append(patterns, g)
	}

	return cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if allowAll {
				return true
			}
			origin = strings.ToLower(origin)
			for _, g := range patterns {
				if g.Match(origin) {
					return true
				}
			}
			return false
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}), nil
}
