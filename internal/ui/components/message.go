// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// TurnOptions controls how turns render.
type TurnOptions struct {
	// Width is the full width of the message area.
	Width int

	// ShowCitations appends a Sources list to assistant turns that have
	// citations.
	ShowCitations bool

	// Markdown renders assistant content. Nil renders plain text.
	Markdown *MarkdownRenderer
}

// RenderTurn renders one turn as a bubble. User turns are right-aligned,
// assistant turns left-aligned.
func RenderTurn(theme *styles.Theme, turn model.Turn, opts TurnOptions) string {
	maxWidth := bubbleWidth(theme, opts.Width)

	label := theme.RoleLabel.Render(turn.Role.DisplayName())

	var body string
	var bubble lipgloss.Style
	if turn.IsUser() {
		bubble = theme.UserBubble
		body = wrapText(turn.Content, maxWidth-4)
	} else {
		bubble = theme.AssistantBubble
		if opts.Markdown != nil {
			body = opts.Markdown.Render(turn.Content)
		} else {
			body = wrapText(turn.Content, maxWidth-4)
		}
		if opts.ShowCitations && turn.HasCitations() {
			body = lipgloss.JoinVertical(lipgloss.Left, body, RenderSources(theme, turn.Citations))
		}
	}

	block := lipgloss.JoinVertical(lipgloss.Left, label, bubble.MaxWidth(maxWidth).Render(body))
	if turn.IsUser() && opts.Width > 0 {
		return lipgloss.PlaceHorizontal(opts.Width, lipgloss.Right, block)
	}
	return block
}

// RenderSources renders a citation list. Citations with a URI show it as a
// link after the label.
func RenderSources(theme *styles.Theme, cites []model.Citation) string {
	if len(cites) == 0 {
		return ""
	}
	lines := []string{theme.SourcesTitle.Render("Sources")}
	for i, c := range cites {
		line := theme.SourceItem.Render(itoa(i+1) + ". " + c.Label())
		if c.URI != "" && c.URI != c.Label() {
			line += " " + theme.Link.Render(c.URI)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderTranscript renders every turn separated by blank lines.
func RenderTranscript(theme *styles.Theme, turns []model.Turn, opts TurnOptions) string {
	rendered := make([]string, 0, len(turns))
	for _, turn := range turns {
		rendered = append(rendered, RenderTurn(theme, turn, opts))
	}
	return strings.Join(rendered, "\n\n")
}

func bubbleWidth(theme *styles.Theme, width int) int {
	if width <= 0 {
		return 80
	}
	t := *theme
	t.SetSize(width, t.Height)
	return t.BubbleWidth()
}
