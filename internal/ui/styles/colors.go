// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Purple - Primary accent, assistant bubbles, selected chips
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, prompts, links
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - API available
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors, API unavailable
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, probe in progress
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT COLORS
// =============================================================================

var (
	Surface    = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
	SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}
	Overlay    = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}
	TextMuted     = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}
	TextInverse   = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}
)

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// User message bubble - Blue tones
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant message bubble - Muted violet
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

// LinkColor is used for citation URIs.
var LinkColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicatorSet contains text indicators shown next to status colors
// so state never depends on color alone.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
}

// StatusIndicators are ASCII-only for maximum terminal compatibility.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
}

// RenderSuccess renders message in green with the success indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders message in red with the error indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders message in amber with the warning indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(Amber).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders message in cyan with the info indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}
