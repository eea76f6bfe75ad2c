// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// TruncateRunes truncates s to at most maxRunes characters, appending
// "..." when anything was cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= len(ellipsis) {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-len(ellipsis)]) + ellipsis
}

// TruncateWidth truncates s to at most maxWidth terminal columns. Wide
// characters (CJK, most emoji) count as two columns.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, ellipsis)
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadRight pads s with spaces to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
