// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
)

// Toast display durations.
const (
	DefaultToastDuration = 4 * time.Second
	WarningToastDuration = 6 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// Toast is a non-blocking notification that dismisses itself.
type Toast struct {
	ID        int
	Kind      ToastKind
	Title     string
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast with the default duration for kind.
func NewToast(kind ToastKind, title, message string) Toast {
	d := DefaultToastDuration
	switch kind {
	case ToastWarning:
		d = WarningToastDuration
	case ToastError:
		d = ErrorToastDuration
	}
	return Toast{
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// ExpiredAt reports whether the toast has expired at now.
func (t Toast) ExpiredAt(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first. It is safe for
// concurrent use.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates a manager that shows at most 3 toasts.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 3}
}

// Add shows a toast and returns its ID.
func (m *ToastManager) Add(t Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return t.ID
}

// Dismiss removes the newest toast.
func (m *ToastManager) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Tick drops toasts expired at now and returns the rest.
func (m *ToastManager) Tick(now time.Time) []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.ExpiredAt(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// HasToasts reports whether any toast is visible.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast no wider than width.
func RenderToast(theme *styles.Theme, t Toast, width int) string {
	maxWidth := 50
	if width > 0 && width-4 < maxWidth {
		maxWidth = width - 4
	}
	if maxWidth < 20 {
		maxWidth = 20
	}

	var style lipgloss.Style
	var icon string
	switch t.Kind {
	case ToastError:
		style, icon = theme.ToastError, styles.StatusIndicators.Error
	case ToastWarning:
		style, icon = theme.ToastWarning, styles.StatusIndicators.Warning
	case ToastSuccess:
		style, icon = theme.ToastInfo.BorderForeground(styles.Emerald), styles.StatusIndicators.Success
	default:
		style, icon = theme.ToastInfo, styles.StatusIndicators.Info
	}

	content := lipgloss.NewStyle().Bold(true).Render(icon + " " + t.Title)
	if t.Message != "" {
		content += "\n" + wrapText(t.Message, maxWidth-4)
	}
	return style.MaxWidth(maxWidth).Render(content)
}

// RenderToastStack renders toasts stacked vertically, right-aligned to
// width.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(theme, t, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
	}
	return stack
}
