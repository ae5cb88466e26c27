// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/model"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects that point at externally hosted models",
		Long: `Projects link a name to the URL of a model hosted elsewhere. They show up in
the picker as "project:<name>". Adding and removing projects is audited.`,
	}
	cmd.AddCommand(newProjectAddCmd(a), newProjectListCmd(a), newProjectRemoveCmd(a))
	return cmd
}

func validateProjectURL(raw string) error {
	_, err := model.ProjectKind(raw)
	switch {
	case errors.Is(err, model.ErrProjectURL):
		return errors.New(i18n.T("cli.project_bad_url", raw))
	case err != nil:
		return errors.New(i18n.T("cli.project_bad_kind", raw))
	}
	return nil
}

func newProjectAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, rawURL := args[0], args[1]
			if err := validateProjectURL(rawURL); err != nil {
				return err
			}
			p, err := a.store.AddProject(cmd.Context(), name, rawURL)
			if errors.Is(err, db.ErrDuplicate) {
				return errors.New(i18n.T("cli.project_exists", name))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.project_added", p.Name, p.Kind))
			return nil
		},
	}
}

func newProjectListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.store.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, i18n.T("cli.no_projects"))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range projects {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.Kind, p.URL)
			}
			return tw.Flush()
		},
	}
}

func newProjectRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			err := a.store.RemoveProject(cmd.Context(), name)
			if errors.Is(err, db.ErrNotFound) {
				return errors.New(i18n.T("cli.project_not_found", name))
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.project_removed", name))
			return nil
		},
	}
}
