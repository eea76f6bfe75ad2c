// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across darkchat.
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: terminal-column aware helpers
//   - NormalizeInput, IsBlank: user input cleanup before sending
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	text := util.NormalizeInput(raw)
//	if text == "" {
//	    return // nothing to send
//	}
//	err := util.AtomicWriteFile(path, data, 0644)
package util
