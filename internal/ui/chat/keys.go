// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for the chat view.
type KeyMap struct {
	Submit   key.Binding
	NextChip key.Binding
	PrevChip key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Dismiss  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		NextChip: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next suggestion"),
		),
		PrevChip: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous suggestion"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Top: key.NewBinding(
			key.WithKeys("ctrl+home"),
			key.WithHelp("C-Home", "oldest message"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("ctrl+end"),
			key.WithHelp("C-End", "newest message"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "dismiss"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.PageUp, k.Help, k.Quit}
}

// FullHelp returns every binding, grouped for the help panel.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NextChip, k.PrevChip},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Dismiss, k.Help, k.Quit},
	}
}
