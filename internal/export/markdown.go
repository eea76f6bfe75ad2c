// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// frontmatter is the YAML block at the top of a Markdown export.
type frontmatter struct {
	Title     string `yaml:"title"`
	Date      string `yaml:"date"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(t model.Transcript) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTranscript
	}
	turns := t.Turns()
	now := e.options.now()

	var sb strings.Builder

	if e.options.IncludeMetadata {
		// yaml.v3 quotes anything that would break the block, newlines included.
		fm, err := yaml.Marshal(frontmatter{
			Title:     t.Title(),
			Date:      turns[0].CreatedAt.Format(time.RFC3339),
			Messages:  len(turns),
			Exported:  now.Format(time.RFC3339),
			Generator: "darkchat",
		})
		if err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(fm)
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(t.Title()))

	for i, turn := range turns {
		if e.options.IncludeTimestamps {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n",
				turn.Role.DisplayName(),
				turn.CreatedAt.Format("15:04:05"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", turn.Role.DisplayName())
		}

		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n\n")

		if turn.HasCitations() {
			sb.WriteString(formatSources(turn.Citations))
			sb.WriteString("\n")
		}

		if i < len(turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from darkchat on %s*\n",
		now.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatSources renders citations as a Markdown list. Citations without a
// URI are plain text.
func formatSources(cites []model.Citation) string {
	var sb strings.Builder
	sb.WriteString("**Sources**\n\n")
	for _, c := range cites {
		if c.URI == "" {
			fmt.Fprintf(&sb, "- %s\n", escapeMarkdown(c.Label()))
			continue
		}
		fmt.Fprintf(&sb, "- [%s](%s)\n", escapeMarkdown(c.Label()), c.URI)
	}
	return sb.String()
}

// escapeMarkdown escapes characters that break headings and link text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
