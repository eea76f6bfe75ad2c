// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styles for darkchat's line-oriented commands.
//
// Colors come from the TUI palette so chat, ask and status look like the
// full-screen view. They are disabled for non-TTY output.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// setupColors configures lipgloss for CLI output. It is called once the
// command knows it is not running the TUI.
func setupColors() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Purple).
			MarginBottom(1)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(14)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// PromptStyle is the REPL prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// AssistantStyle labels assistant replies
	AssistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// SuccessStyle is used for success messages and OK statuses
	SuccessStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)
)

// =============================================================================
// HELPERS
// =============================================================================

// RenderSeparator renders a horizontal rule of width w (default 60).
func RenderSeparator(w int) string {
	if w <= 0 {
		w = 60
	}
	return DimStyle.Render(strings.Repeat("─", w))
}

// RenderStatus renders an availability marker.
func RenderStatus(ok bool) string {
	if ok {
		return SuccessStyle.Render("[OK]")
	}
	return ErrorStyle.Render("[FAIL]")
}

// RenderField renders a "label value" line.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
