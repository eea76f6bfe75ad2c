// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to a file.
//
// # Supported Formats
//
//   - Markdown: human-readable, with YAML frontmatter and a Sources list
//     under each assistant turn that has citations
//   - JSON: machine-readable, every turn with its ID, role and citations
//
// # Usage
//
//	exp, err := export.New(export.FormatMarkdown, nil)
//	if err != nil {
//	    return err
//	}
//	path, err := export.ToFile(transcript, exp, "")
//
// Exports are one-off snapshots. Nothing in darkchat reads them back.
package export
