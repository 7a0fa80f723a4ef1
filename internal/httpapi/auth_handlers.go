// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/planwell/planwell/internal/auth"
)

// userView is the public shape of an account. The password hash never
// leaves the server.
type userView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newUserView(u *auth.User) userView {
	return userView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		BlockedAt: u.BlockedAt,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type sessionView struct {
	User userView `json:"user"`
	*auth.TokenPair
}

func newSessionView(s *auth.Session) sessionView {
	return sessionView{User: newUserView(s.User), TokenPair: s.Tokens}
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.SignUp(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "Registration successful!", newSessionView(session))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Login successful!", newSessionView(session))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in auth.RefreshInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	session, err := s.auth.Refresh(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Token refresh successful", newSessionView(session))
}

func (s *Server) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var in auth.RequestResetInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Password reset link sent to your email", nil)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var in auth.ResetPasswordInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Password reset successful", nil)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	if err := s.auth.Logout(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Logout successful", nil)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	user, err := s.auth.Profile(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "User data retrieved", newUserView(user))
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in auth.UpdateProfileInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.auth.UpdateProfile(r.Context(), p, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "User profile updated", newUserView(user))
}
