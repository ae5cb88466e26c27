// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/toeirei/fieldviewer/internal/i18n"
)

// keyMap holds the picker key bindings. Help texts are translated, so the
// map is rebuilt when the language changes.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Viewer   key.Binding
	Copy     key.Binding
	Reload   key.Binding
	Audit    key.Binding
	Language key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", i18n.T("tui.key.up"))),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", i18n.T("tui.key.down"))),
		Open:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", i18n.T("tui.key.open"))),
		Viewer:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", i18n.T("tui.key.viewer"))),
		Copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", i18n.T("tui.key.copy"))),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", i18n.T("tui.key.reload"))),
		Audit:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", i18n.T("tui.key.audit"))),
		Language: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", i18n.T("tui.key.language"))),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", i18n.T("tui.key.help"))),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", i18n.T("tui.key.quit"))),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Viewer, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Viewer, k.Copy, k.Reload},
		{k.Audit, k.Language, k.Help, k.Quit},
	}
}
