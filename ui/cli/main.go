// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the root command: configuration loading, default
// services and the global flags shared by every subcommand.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/toeirei/fieldviewer/internal/analysis"
	"github.com/toeirei/fieldviewer/internal/config"
	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/tui"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

// app holds the services built by setupDefaultServices for one command run.
type app struct {
	cfg        config.Config
	configPath string
	store      db.Store
	registry   *viewer.Registry
	analysis   *analysis.Service

	verbose bool
	cfgFile string
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *app) setupDefaultServices(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warnf("could not load .env: %v", err)
	}

	configPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), configPath)
	// A missing file is expected on first run: persist the defaults so the
	// user has something to edit.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		if path, writeErr := config.WriteConfigFile(&cfg, false); writeErr != nil {
			logging.Warnf("could not write default config file: %v", writeErr)
		} else {
			logging.Infof("wrote default config to %s", path)
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if configPath != nil {
		a.configPath = *configPath
	} else if p, err := config.UserConfigPath(); err == nil {
		a.configPath = p
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		logging.Warnf("%v", err)
	}
	if a.verbose {
		logging.SetDebug(true)
		db.SetDebug(true)
	}

	i18n.Init(cfg.Language)

	a.registry, err = viewer.NewRegistry(cfg.Viewers...)
	if err != nil {
		return fmt.Errorf("invalid viewers: %w", err)
	}
	if _, ok := a.registry.Get(cfg.DefaultViewer); !ok {
		logging.Warnf("default_viewer %q is not a known viewer", cfg.DefaultViewer)
	}

	a.store, err = db.New(cfg.Database.Type, cfg.Database.Dsn)
	if err != nil {
		return errors.New(i18n.T("config.error_init_db", err))
	}
	a.seedProjects(cmd.Context())

	a.analysis = &analysis.Service{
		Store:      a.store,
		Fetcher:    analysis.NewHTTPFetcher(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes),
		CountTypes: cfg.IFC.CountTypes,
		MaxBytes:   cfg.Fetch.MaxBytes,
	}
	return nil
}

// seedProjects inserts configured projects that are not stored yet.
func (a *app) seedProjects(ctx context.Context) {
	for _, p := range a.cfg.Projects {
		_, err := a.store.GetProject(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, db.ErrNotFound) {
			logging.Warnf("seed project %s: %v", p.Name, err)
			continue
		}
		if _, err := a.store.AddProject(ctx, p.Name, p.URL); err != nil {
			logging.Warnf("seed project %s: %v", p.Name, err)
			continue
		}
		logging.Infof("added project %s from config", p.Name)
	}
}

// saveLanguage persists a language picked in the TUI.
func (a *app) saveLanguage(lang string) error {
	a.cfg.Language = lang
	if a.configPath == "" {
		return errors.New("no config file path")
	}
	return config.WriteConfigTo(a.configPath, &a.cfg)
}

func (a *app) tuiDeps() tui.Deps {
	return tui.Deps{
		ModelsDir:     a.cfg.Models.Dir,
		FilesBaseURL:  a.cfg.FilesBaseURL(),
		DefaultViewer: a.cfg.DefaultViewer,
		Registry:      a.registry,
		Analysis:      a.analysis,
		Store:         a.store,
		User:          currentUser(),
		SaveLanguage:  a.saveLanguage,
	}
}

// currentUser names the local operator in audit entries.
func currentUser() string {
	for _, k := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(k); u != "" {
			return u
		}
	}
	return ""
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// skipsSetup reports whether cmd or one of its parents opted out of
// loading config and opening the database.
func skipsSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipSetup"] == "true" {
			return true
		}
	}
	return false
}

// Execute runs the CLI entrypoint.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates and configures a new root cobra command. Every call
// returns an independent command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "fieldviewer",
		Short: "Fieldviewer lists BIM and 3D models and links them to web viewers.",
		Long: `Fieldviewer catalogs the IFC, PDF, U3D and OBJ files of a models directory
together with remotely hosted projects. For every model it builds share links
and embeds for external viewers, and it reads element counts out of IFC files.

Running without a subcommand launches the interactive TUI.`,
		Version:       compositeVersion(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsSetup(cmd) {
				return nil
			}
			return a.setupDefaultServices(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.tuiDeps())
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging, including SQL")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "en", `Interface language ("en", "es")`)
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("database.dsn", "./fieldviewer.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("models.dir", "./models", "Directory holding the model files")

	cmd.AddCommand(
		newServeCmd(a),
		newTUICmd(a),
		newListCmd(a),
		newLinksCmd(a),
		newStatsCmd(a),
		newProjectCmd(a),
		newUserCmd(),
		newAuditCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newMigrateCmd(a),
		newDBMaintainCmd(a),
		newVersionCmd(),
	)
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive model picker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.tuiDeps())
		},
	}
}
