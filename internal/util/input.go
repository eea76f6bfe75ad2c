// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeInput prepares user-typed text for sending: NFC-normalizes it,
// strips control characters other than newline and tab, and trims
// surrounding whitespace. The result is empty for whitespace-only input.
func NormalizeInput(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// IsBlank reports whether s is empty after normalization.
func IsBlank(s string) bool {
	return NormalizeInput(s) == ""
}
