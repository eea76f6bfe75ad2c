// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/session"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Availability is what the header badge shows about the chat API.
type Availability int

const (
	AvailabilityChecking Availability = iota
	AvailabilityOnline
	AvailabilityOffline
)

// String returns the badge text.
func (a Availability) String() string {
	switch a {
	case AvailabilityOnline:
		return "online"
	case AvailabilityOffline:
		return "unavailable"
	default:
		return "connecting"
	}
}

// AvailabilityOf derives the badge from a session snapshot.
func AvailabilityOf(st session.State) Availability {
	switch {
	case !st.IsAPIAvailable:
		return AvailabilityOffline
	case st.Probed:
		return AvailabilityOnline
	default:
		return AvailabilityChecking
	}
}

// Header is the title bar.
type Header struct {
	Title        string
	Subtitle     string
	Availability Availability
	Width        int
	theme        *styles.Theme
}

// NewHeader creates a header.
func NewHeader(theme *styles.Theme, title, subtitle string) *Header {
	return &Header{
		Title:    title,
		Subtitle: subtitle,
		Width:    80,
		theme:    theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// Badge renders the availability badge alone.
func (h *Header) Badge() string {
	switch h.Availability {
	case AvailabilityOnline:
		return h.theme.BadgeOnline.Render(styles.StatusIndicators.Success + " " + h.Availability.String())
	case AvailabilityOffline:
		return h.theme.BadgeOffline.Render(styles.StatusIndicators.Error + " " + h.Availability.String())
	default:
		return h.theme.BadgeChecking.Render(styles.StatusIndicators.Pending + " " + h.Availability.String())
	}
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 30 {
		width = 30
	}
	// Border and padding take 2 columns.
	inner := width - 2

	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Subtitle != "" {
		left = lipgloss.JoinVertical(lipgloss.Left, left, h.theme.HeaderSubtitle.Render(h.Subtitle))
	}
	badge := h.Badge()

	gap := inner - lipgloss.Width(left) - lipgloss.Width(badge)
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")
	row := lipgloss.JoinHorizontal(lipgloss.Top, left, spacer, badge)

	return h.theme.Header.Width(width).Render(row)
}
