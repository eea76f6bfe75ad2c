// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText word-wraps text to width display columns, keeping existing line
// breaks. Words wider than width are hard-wrapped.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, wrapLine(para, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	curWidth := 0
	for _, word := range words {
		for runewidth.StringWidth(word) > width {
			if curWidth > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
				curWidth = 0
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		w := runewidth.StringWidth(word)
		switch {
		case curWidth == 0:
			cur.WriteString(word)
			curWidth = w
		case curWidth+1+w <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curWidth += 1 + w
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(word)
			curWidth = w
		}
	}
	if curWidth > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
