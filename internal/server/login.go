// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/toeirei/fieldviewer/internal/auth"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/security"
)

// Audit actions written by the login handlers.
const (
	ActionLogin  = "LOGIN"
	ActionLogout = "LOGOUT"
)

func (s *Server) audit(r *http.Request, user, action, details string) {
	if s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.LogAction(r.Context(), user, action, details); err != nil {
		logging.Warnf("server: audit %s failed: %v", action, err)
	}
}

// clientHost is the remote address without its port.
func clientHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.opts.Auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginPage{
		Lang: i18n.GetLang(),
		Next: safeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.opts.Auth == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user := strings.TrimSpace(r.PostFormValue("username"))
	password := security.FromString(r.PostFormValue("password"))
	defer password.Zero()
	next := safeNext(r.PostFormValue("next"))

	if err := s.opts.Auth.VerifyFrom(clientHost(r), user, password); err != nil {
		status, msg := http.StatusUnauthorized, i18n.T("web.login_failed")
		if errors.Is(err, auth.ErrRateLimited) {
			status, msg = http.StatusTooManyRequests, i18n.T("web.login_rate_limited")
		}
		logging.Warnf("server: login for %q from %s failed: %v", user, r.RemoteAddr, err)
		s.render(w, status, "login.html", loginPage{Lang: i18n.GetLang(), Next: next, User: user, Error: msg})
		return
	}

	sess, err := s.opts.Sessions.Create(strings.ToLower(user))
	if err != nil {
		logging.Errorf("server: create session: %v", err)
		http.Error(w, i18n.T("web.internal_error"), http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, s.isHTTPS(r), sess.Token, sess.ExpiresAt)
	s.audit(r, sess.Username, ActionLogin, r.RemoteAddr)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.opts.Sessions != nil {
		if c, err := r.Cookie(sessionCookie); err == nil {
			s.opts.Sessions.Delete(c.Value)
		}
		if user := userFrom(r.Context()); user != "" {
			s.audit(r, user, ActionLogout, r.RemoteAddr)
		}
	}
	clearSessionCookie(w)
	target := "/"
	if s.opts.Auth != nil {
		target = "/login"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
