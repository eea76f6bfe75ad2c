// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON. The output always carries every
// turn; options only supply the export time.
type JSONExporter struct {
	options *Options
}

// jsonDocument is the exported JSON shape.
type jsonDocument struct {
	Title      string       `json:"title"`
	ExportedAt time.Time    `json:"exported_at"`
	Generator  string       `json:"generator"`
	Turns      []model.Turn `json:"turns"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(t model.Transcript) ([]byte, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTranscript
	}
	doc := jsonDocument{
		Title:      t.Title(),
		ExportedAt: e.options.now(),
		Generator:  "darkchat",
		Turns:      t.Turns(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
