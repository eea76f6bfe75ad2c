// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Mode selects how the background is determined.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// ParseMode maps a ui.theme value to a Mode. Unknown values are auto.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDark:
		return ModeDark
	case ModeLight:
		return ModeLight
	default:
		return ModeAuto
	}
}

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Mode         Mode
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	BadgeOnline    lipgloss.Style
	BadgeOffline   lipgloss.Style
	BadgeChecking  lipgloss.Style

	// Messages
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style
	SourcesTitle    lipgloss.Style
	SourceItem      lipgloss.Style
	Link            lipgloss.Style
	Typing          lipgloss.Style

	// Welcome screen
	WelcomeBox   lipgloss.Style
	WelcomeTitle lipgloss.Style
	WelcomeInfo  lipgloss.Style
	Chip         lipgloss.Style
	ChipSelected lipgloss.Style
	ChipTitle    lipgloss.Style
	ChipSubtitle lipgloss.Style
	ChipKey      lipgloss.Style

	// Input area
	InputContainer   lipgloss.Style
	InputDisabled    lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// Toasts
	ToastInfo    lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style

	// Footer
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme. ModeAuto asks the terminal for its background.
func NewTheme(mode Mode) *Theme {
	profile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case ModeDark:
		isDark = true
	case ModeLight:
		isDark = false
	default:
		mode = ModeAuto
		isDark = termenv.HasDarkBackground()
	}
	// AdaptiveColor resolution follows the renderer's background flag.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.BadgeOnline = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.BadgeOffline = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.BadgeChecking = lipgloss.NewStyle().
		Foreground(Amber)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 1).
		MarginRight(4)

	t.RoleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.SourcesTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		MarginTop(1)

	t.SourceItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Link = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)

	t.Typing = lipgloss.NewStyle().
		Foreground(Purple)

	// Welcome screen
	t.WelcomeBox = lipgloss.NewStyle().
		Padding(1, 2).
		Align(lipgloss.Center)

	t.WelcomeTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.WelcomeInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Chip = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.ChipSelected = t.Chip.
		BorderForeground(Purple)

	t.ChipTitle = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.ChipSubtitle = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ChipKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)

	t.InputDisabled = t.InputContainer.
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Toasts
	toast := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	t.ToastInfo = toast.BorderForeground(Cyan).Foreground(TextPrimary)
	t.ToastWarning = toast.BorderForeground(Amber).Foreground(Amber)
	t.ToastError = toast.BorderForeground(Rose).Foreground(Rose)

	// Footer
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// BubbleWidth returns the maximum width of a message bubble.
func (t *Theme) BubbleWidth() int {
	switch t.GetLayoutMode() {
	case LayoutNarrow:
		return max(t.Width-2, 10)
	case LayoutMedium:
		return t.Width * 85 / 100
	default:
		return t.Width * 3 / 4
	}
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
