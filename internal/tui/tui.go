// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Fieldviewer.
// This file, tui.go, holds the top-level model: the model picker with its
// detail pane, and the router to the audit log and language views.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/fieldviewer/internal/analysis"
	"github.com/toeirei/fieldviewer/internal/catalog"
	"github.com/toeirei/fieldviewer/internal/db"
	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
	"github.com/toeirei/fieldviewer/internal/model"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// Deps is what the TUI needs from the rest of the application.
type Deps struct {
	ModelsDir string
	// FilesBaseURL is prepended to local file names to build raw URLs.
	FilesBaseURL  string
	DefaultViewer string
	Registry      *viewer.Registry
	Analysis      *analysis.Service
	// Store is optional; without it projects and the audit log are empty.
	Store db.Store
	User  string
	// SaveLanguage persists a language picked in the language view.
	SaveLanguage func(lang string) error
}

// viewState represents which part of the UI is currently active.
type viewState int

const (
	pickerView viewState = iota
	auditLogView
	languageView
)

type entriesMsg struct {
	entries []catalog.Entry
	err     error
}

type detailMsg struct {
	key    string
	links  viewer.Links
	report analysis.Report
}

type auditEntriesMsg struct {
	entries []model.AuditLogEntry
	err     error
}

type languageChangedMsg struct{}

type backToPickerMsg struct{}

// detail is the right-hand pane for the opened entry.
type detail struct {
	entry  catalog.Entry
	links  viewer.Links
	viewer int
	report analysis.Report
}

// shareURL returns the link of the chosen viewer, or the raw URL when no
// viewer handles the kind.
func (d *detail) shareURL() string {
	if len(d.links.Viewers) == 0 {
		return d.links.Download
	}
	return d.links.Viewers[d.viewer].URL
}

// mainModel is the top-level model for the TUI.
type mainModel struct {
	ctx   context.Context
	deps  Deps
	state viewState
	keys  keyMap
	help  help.Model

	entries []catalog.Entry
	cursor  int
	listErr error
	detail  *detail
	loading string
	status  string

	auditLog auditLogModel
	language languageModel

	width  int
	height int
}

func newModel(ctx context.Context, deps Deps) mainModel {
	return mainModel{
		ctx:  ctx,
		deps: deps,
		keys: newKeyMap(),
		help: help.New(),
	}
}

// Init loads the entry list.
func (m mainModel) Init() tea.Cmd {
	return m.loadEntriesCmd()
}

func (m mainModel) loadEntriesCmd() tea.Cmd {
	ctx, deps := m.ctx, m.deps
	return func() tea.Msg {
		var errs []error
		files, err := catalog.List(deps.ModelsDir)
		if err != nil {
			errs = append(errs, err)
		}
		var projects []model.Project
		if deps.Store != nil {
			if projects, err = deps.Store.ListProjects(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return entriesMsg{entries: catalog.Merge(files, projects), err: errors.Join(errs...)}
	}
}

func (m mainModel) rawURL(e catalog.Entry) string {
	if e.Source == catalog.SourceProject && e.Project != nil {
		return e.Project.URL
	}
	return catalog.RawURL(m.deps.FilesBaseURL, e.Label)
}

func (m mainModel) loadDetailCmd(e catalog.Entry) tea.Cmd {
	ctx, deps := m.ctx, m.deps
	links := deps.Registry.Resolve(e.Kind, m.rawURL(e), e.Label, deps.DefaultViewer)
	return func() tea.Msg {
		return detailMsg{key: e.Key(), links: links, report: deps.Analysis.Inspect(ctx, e, deps.User)}
	}
}

func (m mainModel) selected() (catalog.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return catalog.Entry{}, false
	}
	return m.entries[m.cursor], true
}

// Update is the main message loop.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.state == auditLogView {
			m.auditLog.resize(msg.Width, msg.Height)
		}
		return m, nil

	case entriesMsg:
		m.entries, m.listErr = msg.entries, msg.err
		if m.cursor >= len(m.entries) {
			m.cursor = max(0, len(m.entries)-1)
		}
		if m.detail != nil {
			if _, ok := catalog.Find(m.entries, m.detail.entry.Key()); !ok {
				m.detail = nil
			}
		}
		return m, nil

	case detailMsg:
		e, ok := catalog.Find(m.entries, msg.key)
		if !ok || msg.key != m.loading {
			return m, nil
		}
		m.loading = ""
		d := &detail{entry: e, links: msg.links, report: msg.report}
		for i, l := range msg.links.Viewers {
			if l.Viewer == msg.links.Selected {
				d.viewer = i
			}
		}
		m.detail = d
		return m, nil

	case auditEntriesMsg:
		m.auditLog = newAuditLogModel(msg.entries, msg.err)
		m.auditLog.resize(m.width, m.height)
		return m, nil

	case backToPickerMsg:
		m.state = pickerView
		return m, nil

	case languageChangedMsg:
		m.keys = newKeyMap()
		m.state = pickerView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.state {
	case auditLogView:
		var cmd tea.Cmd
		m.auditLog, cmd = m.auditLog.Update(msg)
		return m, cmd
	case languageView:
		var cmd tea.Cmd
		m.language, cmd = m.language.Update(msg, m.deps.SaveLanguage)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Open):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.loading = e.Key()
		m.status = ""
		return m, m.loadDetailCmd(e)
	case key.Matches(keyMsg, m.keys.Viewer):
		if m.detail != nil && len(m.detail.links.Viewers) > 1 {
			m.detail.viewer = (m.detail.viewer + 1) % len(m.detail.links.Viewers)
			m.status = i18n.T("tui.viewer_selected", m.detail.links.Viewers[m.detail.viewer].Title)
		}
	case key.Matches(keyMsg, m.keys.Copy):
		if m.detail == nil {
			return m, nil
		}
		link := m.detail.shareURL()
		if err := clipboardWrite(link); err != nil {
			logging.Warnf("tui: clipboard: %v", err)
			m.status = i18n.T("tui.copy_failed", err)
		} else {
			m.status = i18n.T("tui.copied")
		}
	case key.Matches(keyMsg, m.keys.Reload):
		m.status = i18n.T("tui.reloaded")
		return m, m.loadEntriesCmd()
	case key.Matches(keyMsg, m.keys.Audit):
		m.state = auditLogView
		return m, m.loadAuditCmd()
	case key.Matches(keyMsg, m.keys.Language):
		m.state = languageView
		m.language = newLanguageModel()
	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m mainModel) loadAuditCmd() tea.Cmd {
	ctx, st := m.ctx, m.deps.Store
	return func() tea.Msg {
		if st == nil {
			return auditEntriesMsg{}
		}
		entries, err := st.GetAuditLog(ctx, 500)
		return auditEntriesMsg{entries: entries, err: err}
	}
}

// View renders the active view.
func (m mainModel) View() string {
	switch m.state {
	case auditLogView:
		return m.auditLog.View()
	case languageView:
		return m.language.View()
	}

	title := mainTitleStyle.Render("▦ " + i18n.T("tui.title"))
	subTitle := helpStyle.Render(i18n.T("tui.subtitle", m.deps.ModelsDir))
	header := lipgloss.JoinVertical(lipgloss.Left, title, subTitle)

	width := m.width
	if width <= 0 {
		width = 100
	}
	listWidth := 34
	detailWidth := max(40, width-4-listWidth-6)

	left := paneStyle.Width(listWidth).Render(m.viewList(listWidth - 4))
	right := paneStyle.Width(detailWidth).MarginLeft(2).Render(m.viewDetail(detailWidth - 4))
	mainArea := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	status := ""
	if m.status != "" {
		status = statusMessageStyle.Render(m.status)
	}
	footer := footerStyle.Render(AlignFooter(m.help.View(m.keys), status, width-2))

	return lipgloss.JoinVertical(lipgloss.Left, header, mainArea, footer)
}

func (m mainModel) viewList(width int) string {
	lines := []string{paneTitleStyle.Render(i18n.T("tui.models")), ""}
	if len(m.entries) == 0 {
		lines = append(lines, helpStyle.Render(i18n.T("tui.no_models")))
	}
	for i, e := range m.entries {
		label := truncate(e.Label, width-8)
		kind := kindStyle.Render(string(e.Kind))
		if e.Source == catalog.SourceProject {
			kind = kindStyle.Render(string(e.Kind) + "↗")
		}
		if i == m.cursor {
			lines = append(lines, selectedItemStyle.Render("▸ "+label)+" "+kind)
		} else {
			lines = append(lines, itemStyle.Render("  "+label)+" "+kind)
		}
	}
	if m.listErr != nil {
		lines = append(lines, "", errorStyle.Render(truncate(m.listErr.Error(), width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m mainModel) viewDetail(width int) string {
	if m.loading != "" {
		return helpStyle.Render(i18n.T("tui.loading", m.loading))
	}
	d := m.detail
	if d == nil {
		return helpStyle.Render(i18n.T("tui.placeholder"))
	}

	fit := func(s string) string { return truncate(s, width) }
	lines := []string{paneTitleStyle.Render(fit(d.entry.Label)) + " " + kindStyle.Render(string(d.entry.Kind)), ""}
	if d.report.Err != nil {
		lines = append(lines, errorStyle.Render(fit(d.report.Err.Error())), "")
	}
	if len(d.links.Viewers) > 0 {
		v := d.links.Viewers[d.viewer]
		lines = append(lines,
			fit(i18n.T("tui.viewer", v.Title, d.viewer+1, len(d.links.Viewers))),
			linkStyle.Render(fit(d.shareURL())),
			"")
	} else {
		lines = append(lines, helpStyle.Render(i18n.T("tui.no_viewer")))
	}
	lines = append(lines, i18n.T("tui.download"), helpStyle.Render(fit(d.links.Download)), "")

	if s := d.report.Summary; s != nil {
		lines = append(lines, paneTitleStyle.Render(i18n.T("tui.metrics")))
		lines = append(lines, summaryLines(*s, width)...)
	}
	if ms := d.report.Mesh; ms != nil {
		lines = append(lines, paneTitleStyle.Render(i18n.T("tui.geometry")))
		lines = append(lines, meshLines(*ms)...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func summaryLines(s model.IFCSummary, width int) []string {
	if s.Empty() {
		return []string{helpStyle.Render(i18n.T("tui.no_metrics"))}
	}
	var lines []string
	if s.ProjectName != "" {
		lines = append(lines, helpStyle.Render(truncate(fmt.Sprintf("%s · %s · %s", s.ProjectName, s.Schema, i18n.T("tui.entities", s.EntityCount)), width)))
	}
	labelWidth := 0
	for _, c := range s.Counts {
		labelWidth = max(labelWidth, len(c.Type))
	}
	for _, c := range s.Counts {
		style := itemStyle
		if c.Count > 0 {
			style = successStyle
		}
		lines = append(lines, fmt.Sprintf("%-*s %s", labelWidth, c.Type, style.Render(fmt.Sprintf("%5d", c.Count))))
	}
	for _, st := range s.Storeys {
		var parts []string
		for _, c := range st.Counts {
			if c.Count > 0 {
				parts = append(parts, fmt.Sprintf("%s %d", strings.TrimPrefix(c.Type, "Ifc"), c.Count))
			}
		}
		lines = append(lines, truncate(fmt.Sprintf("%s (%.2f): %s", st.Name, st.Elevation, strings.Join(parts, ", ")), width))
	}
	return lines
}

func meshLines(s model.MeshSummary) []string {
	size := s.Size()
	return []string{
		i18n.T("tui.mesh_counts", s.Vertices, s.Faces, s.Triangles),
		i18n.T("tui.mesh_size", size.X, size.Y, size.Z),
		i18n.T("tui.mesh_area", s.SurfaceArea),
	}
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, deps Deps) error {
	if deps.Registry == nil || deps.Analysis == nil {
		return errors.New("tui: registry and analysis service are required")
	}
	if _, err := tea.NewProgram(newModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
