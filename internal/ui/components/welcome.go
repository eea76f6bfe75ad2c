// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// WELCOME COMPONENT
// =============================================================================

// Chip is a suggested prompt on the welcome screen.
type Chip struct {
	Title    string
	Subtitle string
}

// Prompt returns the text submitted when the chip is chosen.
func (c Chip) Prompt() string {
	return strings.TrimSpace(c.Title + " " + c.Subtitle)
}

// Welcome is the screen shown before the first message.
type Welcome struct {
	Greeting      string
	Hint          string
	Chips         []Chip
	Selected      int
	Transitioning bool
	Width         int
	Height        int
	theme         *styles.Theme
}

// NewWelcome creates a welcome screen with the given chips. Selected is -1
// until the user moves through the chips.
func NewWelcome(theme *styles.Theme, chips []Chip) *Welcome {
	return &Welcome{
		Greeting: "How can I help you today?",
		Hint:     "Type a message, or a suggestion number and Enter. Tab cycles suggestions.",
		Chips:    chips,
		Selected: -1,
		Width:    80,
		Height:   20,
		theme:    theme,
	}
}

// SetSize updates the available area.
func (w *Welcome) SetSize(width, height int) {
	w.Width = width
	w.Height = height
}

// MoveSelection moves the highlighted chip by delta, wrapping around.
func (w *Welcome) MoveSelection(delta int) {
	n := len(w.Chips)
	if n == 0 {
		return
	}
	if w.Selected < 0 {
		if delta >= 0 {
			w.Selected = 0
		} else {
			w.Selected = n - 1
		}
		return
	}
	w.Selected = ((w.Selected+delta)%n + n) % n
}

// Selection returns the prompt of the highlighted chip.
func (w *Welcome) Selection() (string, bool) {
	return w.PromptAt(w.Selected)
}

// Prompts returns the chip prompts in display order.
func (w *Welcome) Prompts() []string {
	out := make([]string, len(w.Chips))
	for i, c := range w.Chips {
		out[i] = c.Prompt()
	}
	return out
}

// PromptAt returns the prompt of chip i (zero-based).
func (w *Welcome) PromptAt(i int) (string, bool) {
	if i < 0 || i >= len(w.Chips) {
		return "", false
	}
	return w.Chips[i].Prompt(), true
}

// View renders the welcome screen.
func (w *Welcome) View() string {
	t := w.theme
	parts := []string{
		t.WelcomeTitle.Render(w.Greeting),
		t.WelcomeInfo.Render(w.Hint),
	}
	if grid := w.chipGrid(); grid != "" {
		parts = append(parts, "", grid)
	}
	body := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if w.Transitioning {
		body = lipgloss.NewStyle().Faint(true).Render(body)
	}
	box := t.WelcomeBox.Render(body)
	if w.Width > 0 && w.Height > 0 {
		return lipgloss.Place(w.Width, w.Height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// chipGrid lays chips out two per row, or one per row when narrow.
func (w *Welcome) chipGrid() string {
	if len(w.Chips) == 0 {
		return ""
	}
	cols := 2
	if w.Width < 60 {
		cols = 1
	}
	chipWidth := (w.Width - 8) / cols
	if chipWidth < 20 {
		chipWidth = 20
	}
	if chipWidth > 40 {
		chipWidth = 40
	}

	var rows []string
	for i := 0; i < len(w.Chips); i += cols {
		var row []string
		for j := i; j < i+cols && j < len(w.Chips); j++ {
			row = append(row, w.renderChip(j, chipWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (w *Welcome) renderChip(i, width int) string {
	t := w.theme
	c := w.Chips[i]
	style := t.Chip
	if i == w.Selected {
		style = t.ChipSelected
	}
	key := ""
	if i < 9 {
		key = t.ChipKey.Render(fmt.Sprintf("%d ", i+1))
	}
	content := key + t.ChipTitle.Render(c.Title)
	if c.Subtitle != "" {
		content += "\n" + t.ChipSubtitle.Render(c.Subtitle)
	}
	// Border takes 2 columns.
	return style.Width(width - 2).Render(content)
}
