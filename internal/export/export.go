// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter converts a transcript to one output format.
type Exporter interface {
	// Export renders the transcript.
	Export(t model.Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "md", "markdown" and "json", case-insensitively.
// An empty string selects Markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a frontmatter block to Markdown output.
	IncludeMetadata bool

	// IncludeTimestamps adds per-turn times to Markdown headings.
	IncludeTimestamps bool

	// Now returns the export time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Now:               time.Now,
	}
}

func (o *Options) now() time.Time {
	if o == nil || o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// New returns the exporter for format.
func New(format Format, opts *Options) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownExporter(opts), nil
	case FormatJSON:
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ToFile renders t with exporter and writes it atomically to path. An
// empty path writes a generated file name in the current directory. It
// returns the path written.
func ToFile(t model.Transcript, exporter Exporter, path string) (string, error) {
	if t.IsEmpty() {
		return "", ErrEmptyTranscript
	}

	content, err := exporter.Export(t)
	if err != nil {
		return "", errors.Wrap(err, "export failed")
	}

	if path == "" {
		path = Filename(t, exporter.FileExtension(), time.Now())
	}
	if filepath.Ext(path) == "" {
		path += exporter.FileExtension()
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", errors.Wrap(err, "write export")
	}
	return path, nil
}

// Save exports t in the named format ("md", "markdown" or "json"; empty
// means markdown) to path, as ToFile does.
func Save(t model.Transcript, format, path string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}
	exp, err := New(f, nil)
	if err != nil {
		return "", err
	}
	return ToFile(t, exp, path)
}

// Filename builds "darkchat_<title>_<timestamp><ext>" for t.
func Filename(t model.Transcript, ext string, at time.Time) string {
	return fmt.Sprintf("darkchat_%s_%s%s",
		sanitizeFilename(t.Title()),
		at.Format("20060102_150405"),
		ext,
	)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in file names.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}

	if len(out) == 0 {
		return "chat"
	}
	return string(out)
}
