// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/fieldviewer/internal/backup"
	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
)

func newAuditCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the most recent audit log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.store.GetAuditLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, i18n.T("audit_log.empty"))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				i18n.T("audit_log.header.timestamp"), i18n.T("audit_log.header.user"),
				i18n.T("audit_log.header.action"), i18n.T("audit_log.header.details"))
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp, e.Username, e.Action, e.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Number of entries to show (0 for all)")
	return cmd
}

func defaultBackupName(now time.Time) string {
	return fmt.Sprintf("fieldviewer-backup-%s.json.zst", now.Format("2006-01-02"))
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Write a compressed snapshot of the database",
		Long: `Export projects, cached IFC summaries and the audit log as zstd-compressed
JSON. Without an argument the file is named fieldviewer-backup-YYYY-MM-DD.json.zst.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultBackupName(time.Now())
			if len(args) == 1 {
				name = args[0]
				if !strings.HasSuffix(name, ".zst") {
					name += ".zst"
				}
			}
			f, err := os.Create(name)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			data, err := backup.Backup(cmd.Context(), a.store, f)
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				_ = os.Remove(name)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.backup_written", name,
				len(data.Projects), len(data.Summaries), len(data.AuditLogEntries)))
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Import a snapshot written by backup",
		Long: `Import a snapshot into the configured database. By default rows that already
exist are kept; --full wipes the database first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open backup file: %w", err)
			}
			defer func() { _ = f.Close() }()
			data, err := backup.Restore(cmd.Context(), f, a.store, full)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.restore_done", args[0],
				len(data.Projects), len(data.Summaries), len(data.AuditLogEntries)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Replace all existing data")
	return cmd
}

func newMigrateCmd(a *app) *cobra.Command {
	var targetType, targetDSN string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all data into another database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if targetType == "" || targetDSN == "" {
				return errors.New("--target-type and --target-dsn are required")
			}
			if !db.IsValidType(targetType) {
				return fmt.Errorf("unsupported target type %q", targetType)
			}
			if err := backup.Migrate(cmd.Context(), a.store, targetType, targetDSN); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.migrate_done", targetType))
			return nil
		},
	}
	cmd.Flags().StringVar(&targetType, "target-type", "", "Target database type (sqlite, postgres, mysql)")
	cmd.Flags().StringVar(&targetDSN, "target-dsn", "", "Target database DSN")
	return cmd
}

func newDBMaintainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "db-maintain",
		Short: "Run database housekeeping (vacuum, optimize)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The maintenance connection needs the database to itself.
			if err := a.close(); err != nil {
				logging.Warnf("close store: %v", err)
			}
			if err := db.RunDBMaintenance(a.cfg.Database.Type, a.cfg.Database.Dsn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintenance_done"))
			return nil
		},
	}
}
