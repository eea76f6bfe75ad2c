// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	gstyles "github.com/charmbracelet/glamour/styles"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// MarkdownRenderer renders assistant content with glamour. A nil renderer
// returns content unchanged.
type MarkdownRenderer struct {
	tr    *glamour.TermRenderer
	width int
}

// NewMarkdownRenderer creates a renderer that wraps at width columns.
func NewMarkdownRenderer(width int, dark bool) (*MarkdownRenderer, error) {
	style := gstyles.LightStyle
	if dark {
		style = gstyles.DarkStyle
	}
	if width < 20 {
		width = 20
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{tr: tr, width: width}, nil
}

// Width returns the wrap width.
func (r *MarkdownRenderer) Width() int {
	if r == nil {
		return 0
	}
	return r.width
}

// Render renders content, falling back to the raw text on error.
func (r *MarkdownRenderer) Render(content string) string {
	if r == nil || r.tr == nil {
		return content
	}
	out, err := r.tr.Render(content)
	if err != nil {
		return content
	}
	// glamour pads the block with blank lines.
	return strings.Trim(out, "\n")
}
