// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TypingIndicator is the placeholder bubble shown while a reply is pending.
type TypingIndicator struct {
	spinner spinner.Model
	label   string
	theme   *styles.Theme
}

// NewTypingIndicator creates an indicator with an ASCII spinner.
func NewTypingIndicator(theme *styles.Theme) TypingIndicator {
	s := spinner.New(
		spinner.WithSpinner(spinner.Spinner{
			Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
			FPS:    time.Second / 6,
		}),
		spinner.WithStyle(theme.Typing),
	)
	return TypingIndicator{
		spinner: s,
		label:   "Assistant is typing",
		theme:   theme,
	}
}

// Tick starts the animation.
func (t TypingIndicator) Tick() tea.Cmd {
	return t.spinner.Tick
}

// Update advances the animation on spinner ticks.
func (t TypingIndicator) Update(msg tea.Msg) (TypingIndicator, tea.Cmd) {
	var cmd tea.Cmd
	t.spinner, cmd = t.spinner.Update(msg)
	return t, cmd
}

// View renders the indicator inside an assistant bubble.
func (t TypingIndicator) View() string {
	label := t.theme.RoleLabel.Render("Assistant")
	body := t.theme.Typing.Render(t.label) + t.spinner.View()
	return label + "\n" + t.theme.AssistantBubble.Render(body)
}
