// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toeirei/fieldviewer/internal/catalog"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/model"
)

// entries lists local files and stored projects. A failing half is reported
// in the error while the other half is still returned.
func (a *app) entries(ctx context.Context) ([]catalog.Entry, error) {
	files, fileErr := catalog.List(a.cfg.Models.Dir)
	projects, projErr := a.store.ListProjects(ctx)
	return catalog.Merge(files, projects), errors.Join(fileErr, projErr)
}

func (a *app) findEntry(ctx context.Context, key string) (catalog.Entry, error) {
	entries, err := a.entries(ctx)
	if e, ok := catalog.Find(entries, key); ok {
		return e, nil
	}
	if err != nil {
		return catalog.Entry{}, err
	}
	return catalog.Entry{}, errors.New(i18n.T("cli.model_not_found", key))
}

func (a *app) rawURL(e catalog.Entry) string {
	if e.Source == catalog.SourceProject && e.Project != nil {
		return e.Project.URL
	}
	return catalog.RawURL(a.cfg.FilesBaseURL(), e.Label)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the models in the models directory and the stored projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.entries(cmd.Context())
			if err != nil && len(entries) == 0 {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.list_partial", err))
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if entries == nil {
					entries = []catalog.Entry{}
				}
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, i18n.T("cli.no_models", a.cfg.Models.Dir))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, i18n.T("cli.list_header"))
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Key(), e.Kind, e.Source, a.rawURL(e))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the entries as JSON")
	return cmd
}

func newLinksCmd(a *app) *cobra.Command {
	var viewerName string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "links <model>",
		Short: "Print the viewer links and iframe embed for a model",
		Long: `Print the raw URL, the share link of every viewer that supports the model
and an iframe snippet. <model> is a file name from the models directory or
"project:<name>".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.findEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			preferred := a.cfg.DefaultViewer
			if viewerName != "" {
				if _, ok := a.registry.Get(viewerName); !ok {
					return errors.New(i18n.T("cli.unknown_viewer", viewerName))
				}
				preferred = viewerName
			}
			links := a.registry.Resolve(e.Kind, a.rawURL(e), e.Label, preferred)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, links)
			}
			fmt.Fprintf(out, "%s\t%s\n", i18n.T("cli.raw_url"), links.Raw)
			if links.Share == "" {
				fmt.Fprintln(out, i18n.T("cli.no_viewer", e.Kind))
				return nil
			}
			for _, l := range links.Viewers {
				marker := " "
				if l.Viewer == links.Selected {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-10s %s\n", marker, l.Viewer, l.URL)
			}
			fmt.Fprintln(out, embedSnippet(links.Embed))
			return nil
		},
	}
	cmd.Flags().StringVar(&viewerName, "viewer", "", "Viewer used for the share link and embed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the links as JSON")
	return cmd
}

func embedSnippet(src string) string {
	src = strings.ReplaceAll(src, `"`, "&quot;")
	return fmt.Sprintf(`<iframe src="%s" width="100%%" height="600" allowfullscreen></iframe>`, src)
}

type statsOutput struct {
	Key     string             `json:"key"`
	Kind    model.Kind         `json:"kind"`
	Summary *model.IFCSummary  `json:"summary,omitempty"`
	Mesh    *model.MeshSummary `json:"mesh,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func newStatsCmd(a *app) *cobra.Command {
	var asJSON bool
	var types []string
	cmd := &cobra.Command{
		Use:   "stats <model>",
		Short: "Print element counts for an IFC model or mesh metrics for an OBJ model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.findEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(types) > 0 {
				a.analysis.CountTypes = types
			}
			rep := a.analysis.Inspect(cmd.Context(), e, currentUser())
			res := statsOutput{Key: e.Key(), Kind: e.Kind, Summary: rep.Summary, Mesh: rep.Mesh}
			if rep.Err != nil {
				res.Error = rep.Err.Error()
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, res); err != nil {
					return err
				}
			} else {
				printStats(out, res)
			}
			return rep.Err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the metrics as JSON")
	cmd.Flags().StringSliceVar(&types, "types", nil, "IFC element types to count (default from ifc.count_types)")
	return cmd
}

func printStats(w io.Writer, s statsOutput) {
	if s.Error != "" {
		fmt.Fprintln(w, i18n.T("cli.stats_error", s.Error))
	}
	switch {
	case s.Summary != nil:
		sum := s.Summary
		if sum.ProjectName != "" {
			fmt.Fprintf(w, "%s\t%s\n", i18n.T("web.project"), sum.ProjectName)
		}
		if sum.Schema != "" {
			fmt.Fprintf(w, "%s\t%s\n", i18n.T("cli.schema"), sum.Schema)
		}
		fmt.Fprintln(w, i18n.T("tui.entities", sum.EntityCount))
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\n", i18n.T("web.element_type"), i18n.T("web.count"))
		for _, c := range sum.Counts {
			fmt.Fprintf(tw, "%s\t%d\n", c.Type, c.Count)
		}
		_ = tw.Flush()
		for _, st := range sum.Storeys {
			fmt.Fprintf(w, "%s (%s %.2f)\n", st.Name, i18n.T("web.elevation"), st.Elevation)
			for _, c := range st.Counts {
				fmt.Fprintf(w, "  %s\t%d\n", c.Type, c.Count)
			}
		}
	case s.Mesh != nil:
		m := *s.Mesh
		size := m.Size()
		fmt.Fprintln(w, i18n.T("tui.mesh_counts", m.Vertices, m.Faces, m.Triangles))
		fmt.Fprintln(w, i18n.T("tui.mesh_size", size.X, size.Y, size.Z))
		fmt.Fprintln(w, i18n.T("tui.mesh_area", m.SurfaceArea))
	default:
		fmt.Fprintln(w, i18n.T("tui.no_metrics"))
	}
}
