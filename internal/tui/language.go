// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toeirei/fieldviewer/internal/i18n"
	"github.com/toeirei/fieldviewer/internal/logging"
)

// languageModel holds the state for the language selection menu.
type languageModel struct {
	choices     map[string]string // lang code -> display name
	orderedKeys []string
	cursor      int
	err         error
}

func newLanguageModel() languageModel {
	m := languageModel{
		choices:     i18n.GetAvailableLocales(),
		orderedKeys: i18n.LocaleCodes(),
	}
	for i, code := range m.orderedKeys {
		if code == i18n.GetLang() {
			m.cursor = i
		}
	}
	return m
}

// Update moves the cursor and applies the chosen language. save may be nil.
func (m languageModel) Update(msg tea.Msg, save func(string) error) (languageModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "esc":
		return m, func() tea.Msg { return backToPickerMsg{} }
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.orderedKeys)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.orderedKeys) == 0 {
			return m, nil
		}
		code := m.orderedKeys[m.cursor]
		i18n.SetLang(code)
		if save != nil {
			if err := save(code); err != nil {
				logging.Warnf("tui: save language: %v", err)
				m.err = err
				return m, nil
			}
		}
		return m, func() tea.Msg { return languageChangedMsg{} }
	}
	return m, nil
}

func (m languageModel) View() string {
	title := mainTitleStyle.Render("🌐 " + i18n.T("language.title"))

	items := []string{titleStyle.Render(i18n.T("language.select")), ""}
	for i, code := range m.orderedKeys {
		name := m.choices[code]
		if m.cursor == i {
			items = append(items, selectedItemStyle.Render("▸ "+name))
		} else {
			items = append(items, itemStyle.Render("  "+name))
		}
	}
	if m.err != nil {
		items = append(items, "", errorStyle.Render(m.err.Error()))
	}

	listPane := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("language.help"), "", 60))
	return lipgloss.JoinVertical(lipgloss.Left, title, "", listPane, "", helpLine)
}
