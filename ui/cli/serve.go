// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/toeirei/fieldviewer/internal/auth"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web model picker and file server",
		Long: `Serve the model picker page, the raw model files under /files/ and the
JSON API. When auth.enabled is set, the picker requires a login with one of
the configured users.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cfg.Sentry.DSN != "" {
				err := sentry.Init(sentry.ClientOptions{
					Dsn:         cfg.Sentry.DSN,
					Environment: cfg.Sentry.Environment,
					Release:     "fieldviewer@" + compositeVersion(),
				})
				if err != nil {
					logging.Warnf("sentry disabled: %v", err)
				} else {
					defer sentry.Flush(2 * time.Second)
				}
			}

			opts := server.Options{
				ModelsDir:     cfg.Models.Dir,
				FilesBaseURL:  cfg.Files.PublicBaseURL,
				PublicURL:     cfg.Server.PublicURL,
				TrustProxy:    cfg.Server.TrustProxy,
				DefaultViewer: cfg.DefaultViewer,
				Registry:      a.registry,
				Analysis:      a.analysis,
				Store:         a.store,
			}
			if cfg.Auth.Enabled {
				authn, err := auth.NewAuthenticator(cfg.Auth.Users, cfg.Auth.AllowPlaintext)
				if err != nil {
					return fmt.Errorf("auth: %w", err)
				}
				opts.Auth = authn
				opts.Sessions = auth.NewSessionStore(cfg.Auth.SessionTTL)
				logging.Infof("login required, %d user(s) configured", authn.Users())
			}

			srv, err := server.New(opts)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context(), cfg.Server.Addr)
		},
	}
	cmd.Flags().String("server.addr", ":8080", "Address to listen on")
	cmd.Flags().String("server.public_url", "", "Externally visible base URL of the server")
	cmd.Flags().Bool("server.trust_proxy", false, "Trust X-Forwarded-Proto from a reverse proxy")
	return cmd
}
