// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package server is the web front end: a model picker page, raw file
// downloads for external viewers, chart previews and a small JSON API.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/toeirei/fieldviewer/internal/analysis"
	"github.com/toeirei/fieldviewer/internal/auth"
	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Options configures a Server. Registry and Analysis are required.
type Options struct {
	ModelsDir string
	// FilesBaseURL replaces this server's /files endpoint in raw URLs.
	FilesBaseURL string
	// PublicURL is the externally visible address of this server. When empty
	// it is derived from each request.
	PublicURL string
	// TrustProxy lets X-Forwarded-Proto from a reverse proxy mark a request
	// as https. Leave it off when clients reach the server directly.
	TrustProxy    bool
	DefaultViewer string

	Registry *viewer.Registry
	Analysis *analysis.Service
	Store    db.Store

	// Auth enables the login page when set.
	Auth     *auth.Authenticator
	Sessions *auth.SessionStore
}

// Server represents the HTTP server
type Server struct {
	opts  Options
	pages *template.Template
	mux   *http.ServeMux
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: viewer registry is required")
	}
	if opts.Analysis == nil {
		return nil, errors.New("server: analysis service is required")
	}
	if opts.Auth != nil && opts.Sessions == nil {
		opts.Sessions = auth.NewSessionStore(12 * time.Hour)
	}
	pages, err := template.New("").Funcs(template.FuncMap{
		"t": i18n.T,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s := &Server{opts: opts, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	static, _ := fs.Sub(staticFS, "static")

	s.mux.HandleFunc("GET /health", s.healthCheck)
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	s.mux.HandleFunc("GET /files/{name}", s.handleFile)
	s.mux.HandleFunc("OPTIONS /files/{name}", s.handleFile)
	s.mux.HandleFunc("GET /preview/{key}", s.handlePreview)
	s.mux.HandleFunc("GET /api/files", s.handleAPIFiles)
	s.mux.HandleFunc("GET /api/models/{key}", s.handleAPIModel)
	s.mux.HandleFunc("GET /login", s.handleLoginPage)
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /logout", s.handleLogout)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return recoverPanics(logRequests(s.requireLogin(s.mux)))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.opts.Sessions != nil {
		go s.sweepSessions(ctx)
	}

	errc := make(chan error, 1)
	go func() {
		logging.Infof("server: listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Infof("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// loginClientIdle is how long a client's login limiter outlives its last attempt.
const loginClientIdle = 15 * time.Minute

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.opts.Sessions.Sweep(); n > 0 {
				logging.Debugf("server: expired %d sessions", n)
			}
			if s.opts.Auth != nil {
				if n := s.opts.Auth.SweepClients(loginClientIdle); n > 0 {
					logging.Debugf("server: dropped %d idle login limiters", n)
				}
			}
		}
	}
}

// healthCheck provides a simple health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "fieldviewer"})
}
