// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/model"
)

// auditLogModel lists audit entries newest first. Rows can be narrowed by a
// free-text filter and by a single action, cycled with tab.
type auditLogModel struct {
	table   table.Model
	entries []model.AuditLogEntry
	actions []string
	action  string // "" shows every action
	query   string
	typing  bool
	err     error
}

func newAuditLogModel(entries []model.AuditLogEntry, err error) auditLogModel {
	m := auditLogModel{entries: entries, err: err}
	for _, e := range entries {
		if !slices.Contains(m.actions, e.Action) {
			m.actions = append(m.actions, e.Action)
		}
	}
	slices.Sort(m.actions)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorSubtle).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(colorWhite).
		Background(colorHighlight)

	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: i18n.T("audit_log.header.timestamp"), Width: 19},
			{Title: i18n.T("audit_log.header.user"), Width: 12},
			{Title: i18n.T("audit_log.header.action"), Width: 16},
			{Title: i18n.T("audit_log.header.details"), Width: 60},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
		table.WithStyles(styles),
	)
	m.refresh()
	return m
}

// auditActionStyle colors model views, catalog changes and sessions apart.
func auditActionStyle(action string) lipgloss.Style {
	switch {
	case strings.HasSuffix(action, "_MODEL"):
		return successStyle
	case strings.HasPrefix(action, "ADD_"), strings.HasPrefix(action, "REMOVE_"):
		return specialStyle
	default:
		return helpStyle
	}
}

func (m auditLogModel) matches(e model.AuditLogEntry) bool {
	if m.action != "" && e.Action != m.action {
		return false
	}
	if m.query == "" {
		return true
	}
	q := strings.ToLower(m.query)
	for _, field := range []string{e.Timestamp, e.Username, e.Action, e.Details} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// refresh rebuilds the visible rows from the entries.
func (m *auditLogModel) refresh() {
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		if !m.matches(e) {
			continue
		}
		ts := e.Timestamp
		if len(ts) > 19 {
			ts = ts[:19]
		}
		rows = append(rows, table.Row{ts, e.Username, auditActionStyle(e.Action).Render(e.Action), e.Details})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// nextAction advances the action filter: all, then each action in order.
func (m *auditLogModel) nextAction() {
	i := slices.Index(m.actions, m.action)
	switch {
	case len(m.actions) == 0:
		m.action = ""
	case m.action == "":
		m.action = m.actions[0]
	case i < 0 || i == len(m.actions)-1:
		m.action = ""
	default:
		m.action = m.actions[i+1]
	}
	m.refresh()
}

func (m *auditLogModel) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.table.SetHeight(max(3, height-8))
	m.table.SetWidth(width - 4)
}

func (m auditLogModel) Update(msg tea.Msg) (auditLogModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok && m.typing {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.typing, m.query = false, ""
		case tea.KeyEnter:
			m.typing = false
			return m, nil
		case tea.KeyBackspace:
			if m.query == "" {
				return m, nil
			}
			r := []rune(m.query)
			m.query = string(r[:len(r)-1])
		case tea.KeyRunes, tea.KeySpace:
			m.query += string(keyMsg.Runes)
		default:
			return m, nil
		}
		m.refresh()
		return m, nil
	}
	if ok {
		switch keyMsg.String() {
		case "/":
			m.typing, m.query = true, ""
			m.refresh()
			return m, nil
		case "tab":
			m.nextAction()
			return m, nil
		case "q", "esc":
			if m.query != "" || m.action != "" {
				m.query, m.action = "", ""
				m.refresh()
				return m, nil
			}
			return m, func() tea.Msg { return backToPickerMsg{} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m auditLogModel) View() string {
	lines := []string{titleStyle.Render(i18n.T("audit_log.title"))}
	switch {
	case m.err != nil:
		lines = append(lines, errorStyle.Render(i18n.T("audit_log.error", m.err)))
	case len(m.entries) == 0:
		lines = append(lines, helpStyle.Render(i18n.T("audit_log.empty")))
	}
	lines = append(lines, m.table.View())

	var status []string
	if m.action != "" {
		status = append(status, i18n.T("audit_log.action_filter", m.action))
	}
	switch {
	case m.typing:
		status = append(status, i18n.T("audit_log.filtering", m.query))
	case m.query != "":
		status = append(status, i18n.T("audit_log.filter_active", m.query))
	default:
		status = append(status, i18n.T("audit_log.filter_hint"))
	}
	status = append(status, i18n.T("audit_log.shown", len(m.table.Rows()), len(m.entries)))
	lines = append(lines, footerStyle.Render(strings.Join(status, "  ")+"  "+i18n.T("audit_log.help")))
	return strings.Join(lines, "\n")
}
