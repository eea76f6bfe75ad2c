// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// Placeholder is the input hint.
const Placeholder = "Send a message..."

// maxInputRunes caps a single message.
const maxInputRunes = 4000

// Options configures the chat view.
type Options struct {
	Title         string
	Subtitle      string
	Chips         []components.Chip
	ShowCitations bool
	Markdown      bool
	Logger        *zerolog.Logger

	// Clipboard writes text to the system clipboard. Defaults to
	// clipboard.WriteAll.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat view.
type Model struct {
	ctl    *controller.Controller
	events *Events
	theme  *styles.Theme
	keys   KeyMap
	opts   Options
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// state is the last snapshot received from the controller.
	state session.State

	header   *components.Header
	welcome  *components.Welcome
	viewport viewport.Model
	input    textinput.Model
	typing   components.TypingIndicator
	toasts   *components.ToastManager
	markdown *components.MarkdownRenderer
	help     help.Model

	// rendered caches the transcript so spinner ticks skip re-rendering.
	rendered string

	showHelp bool
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the chat view for ctl. events must be the Notifier the
// controller was built with; New subscribes it to state changes.
func New(ctl *controller.Controller, events *Events, theme *styles.Theme, opts Options) Model {
	if opts.Title == "" {
		opts.Title = "darkchat"
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	ctl.Subscribe(events.OnState)

	input := textinput.New()
	input.Placeholder = Placeholder
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = maxInputRunes
	input.ShowSuggestions = true
	input.SetSuggestions(CommandNames())
	input.Focus()

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		ctl:      ctl,
		events:   events,
		theme:    theme,
		keys:     DefaultKeyMap(),
		opts:     opts,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		state:    ctl.State(),
		header:   components.NewHeader(theme, opts.Title, opts.Subtitle),
		welcome:  components.NewWelcome(theme, opts.Chips),
		viewport: viewport.New(80, 20),
		input:    input,
		typing:   components.NewTypingIndicator(theme),
		toasts:   components.NewToastManager(),
		help:     help.New(),
	}
	m.syncState()
	return m
}

// Init probes the API once and starts the event loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.events.Wait(),
		m.probeCmd(),
		components.ToastTickCmd(),
	)
}

// State returns the last session snapshot the view rendered.
func (m Model) State() session.State {
	return m.state
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

// InputEnabled reports whether the input accepts typing.
func (m Model) InputEnabled() bool {
	return m.input.Focused()
}

// Toasts returns the visible toasts.
func (m Model) Toasts() []components.Toast {
	return m.toasts.Toasts()
}

// Quitting reports whether the view has asked to exit.
func (m Model) Quitting() bool {
	return m.quitting
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) probeCmd() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return ProbeDoneMsg{Err: ctl.Probe(ctx)}
	}
}

func (m Model) submitCmd(text string) tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		turn, err := ctl.Submit(ctx, text)
		return SubmitDoneMsg{Turn: turn, Err: err}
	}
}

// =============================================================================
// STATE SYNC
// =============================================================================

// syncState pushes m.state into the components and input.
func (m *Model) syncState() {
	m.header.Availability = components.AvailabilityOf(m.state)
	m.welcome.Transitioning = m.state.IsWelcomeTransitioning

	if m.state.IsPending || m.state.IsWelcomeTransitioning {
		m.input.Blur()
	} else if !m.input.Focused() {
		m.input.Focus()
	}
	m.renderTranscript()
	m.refreshViewport()
}

// renderTranscript re-renders every turn into the cache.
func (m *Model) renderTranscript() {
	m.rendered = components.RenderTranscript(m.theme, m.state.Transcript.Turns(), components.TurnOptions{
		Width:         m.viewport.Width,
		ShowCitations: m.opts.ShowCitations,
		Markdown:      m.markdown,
	})
}

// refreshViewport fills the viewport and keeps the newest message in view.
func (m *Model) refreshViewport() {
	if m.state.ShowWelcome() {
		return
	}
	content := m.rendered
	if m.state.IsPending {
		content += "\n\n" + m.typing.View()
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// close stops background work owned by the view.
func (m *Model) close() {
	m.quitting = true
	m.cancel()
	m.events.Close()
}
