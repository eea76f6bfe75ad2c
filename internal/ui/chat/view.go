// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
)

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting darkchat..."
	}

	var body string
	switch {
	case m.showHelp:
		body = m.helpView()
	case m.state.ShowWelcome():
		body = m.welcome.View()
	default:
		body = m.viewport.View()
	}

	if toasts := m.toasts.Toasts(); len(toasts) > 0 {
		stack := components.RenderToastStack(m.theme, toasts, m.width)
		body = overlayBottom(body, stack, m.viewport.Height)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.inputView(),
		m.footerView(),
	)
}

func (m Model) inputView() string {
	style := m.theme.InputContainer
	if !m.InputEnabled() {
		style = m.theme.InputDisabled
	}
	// Border takes 2 columns.
	return style.Width(max(m.width-2, 10)).Render(m.input.View())
}

func (m Model) footerView() string {
	return m.theme.StatusBar.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) helpView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.WelcomeTitle.Render("Keys"))
	sb.WriteString("\n")
	sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.WelcomeTitle.Render("Commands"))
	sb.WriteString("\n")
	sb.WriteString(HelpText())
	return lipgloss.NewStyle().
		Padding(1, 2).
		Height(m.viewport.Height).
		Render(sb.String())
}

// overlayBottom replaces the last lines of body with overlay, keeping the
// body height.
func overlayBottom(body, overlay string, height int) string {
	bodyLines := strings.Split(body, "\n")
	overLines := strings.Split(overlay, "\n")
	if len(overLines) >= len(bodyLines) {
		return overlay
	}
	start := len(bodyLines) - len(overLines)
	copy(bodyLines[start:], overLines)
	out := strings.Join(bodyLines, "\n")
	if height > 0 {
		out = lipgloss.NewStyle().MaxHeight(height).Render(out)
	}
	return out
}
