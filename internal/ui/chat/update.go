// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/export"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StateChangedMsg:
		return m.handleStateChanged(msg)

	case NotificationMsg:
		m.toasts.Add(toastFor(msg.Notification))
		return m, m.events.Wait()

	case ProbeDoneMsg:
		if msg.Err != nil {
			m.log.Debug().Err(msg.Err).Msg("probe finished with error")
		}
		return m, nil

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case ExportDoneMsg:
		if msg.Err != nil {
			m.toasts.Add(components.NewToast(components.ToastError, "Export failed", msg.Err.Error()))
		} else {
			m.toasts.Add(components.NewToast(components.ToastSuccess, "Transcript saved", msg.Path))
		}
		return m, nil

	case CopyDoneMsg:
		if msg.Err != nil {
			m.toasts.Add(components.NewToast(components.ToastError, "Copy failed", msg.Err.Error()))
		} else {
			m.toasts.Add(components.NewToast(components.ToastSuccess, "Copied last reply", ""))
		}
		return m, nil

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		if m.quitting {
			return m, nil
		}
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		if !m.state.IsPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.typing, cmd = m.typing.Update(msg)
		m.refreshViewport()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)
	m.header.SetWidth(msg.Width)
	m.help.Width = msg.Width

	headerHeight := lipgloss.Height(m.header.View())
	// Input box is 3 rows, footer 1.
	bodyHeight := msg.Height - headerHeight - 4
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = bodyHeight
	m.welcome.SetSize(msg.Width, bodyHeight)
	m.input.Width = msg.Width - 6

	if m.opts.Markdown && m.markdown.Width() != m.theme.BubbleWidth()-4 {
		md, err := components.NewMarkdownRenderer(m.theme.BubbleWidth()-4, m.theme.IsDark)
		if err != nil {
			m.log.Warn().Err(err).Msg("markdown renderer unavailable")
		} else {
			m.markdown = md
		}
	}

	m.ready = true
	m.renderTranscript()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleStateChanged(msg StateChangedMsg) (tea.Model, tea.Cmd) {
	wasPending := m.state.IsPending
	m.state = msg.State
	m.syncState()

	cmds := []tea.Cmd{m.events.Wait()}
	if m.state.IsPending && !wasPending {
		cmds = append(cmds, m.typing.Tick())
	}
	if !m.state.IsPending && wasPending {
		cmds = append(cmds, m.input.Focus())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err == nil:
		m.log.Debug().Str("turn", msg.Turn.ID).Msg("submission finished")
	case errors.Is(msg.Err, controller.ErrBusy):
		m.toasts.Add(components.NewToast(components.ToastWarning, "Still waiting", "Wait for the current reply before sending another message."))
	case errors.Is(msg.Err, context.Canceled):
	default:
		m.toasts.Add(components.NewToast(components.ToastError, "Message not sent", msg.Err.Error()))
	}
	if m.state.IsPending || m.state.IsWelcomeTransitioning || m.quitting {
		return m, nil
	}
	return m, m.input.Focus()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.showHelp {
			m.showHelp = false
		} else {
			m.toasts.Dismiss()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if !m.InputEnabled() {
		// Typing is disabled while a reply is pending.
		return m, nil
	}

	if m.state.ShowWelcome() && m.input.Value() == "" {
		if model, cmd, handled := m.handleWelcomeKey(msg); handled {
			return model, cmd
		}
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleWelcomeKey handles chip selection while the input is empty.
func (m Model) handleWelcomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.NextChip):
		m.welcome.MoveSelection(1)
		return m, nil, true
	case key.Matches(msg, m.keys.PrevChip):
		m.welcome.MoveSelection(-1)
		return m, nil, true
	case key.Matches(msg, m.keys.Submit):
		if prompt, ok := m.welcome.Selection(); ok {
			model, cmd := m.send(prompt)
			return model, cmd, true
		}
	}
	return m, nil, false
}

// submitInput sends the input text, runs it as a slash command or, on the
// welcome view, picks the suggestion whose number was typed alone.
// Whitespace-only input is ignored.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if util.IsBlank(text) {
		m.input.Reset()
		return m, nil
	}
	var suggestions []string
	if m.state.ShowWelcome() {
		suggestions = m.welcome.Prompts()
	}
	in := ClassifyInput(text, suggestions)
	if in.Kind == InputCommand {
		m.input.Reset()
		return m.runCommand(in.Name, in.Args)
	}
	return m.send(in.Text)
}

// send clears the input and starts a submission.
func (m Model) send(text string) (tea.Model, tea.Cmd) {
	m.input.Reset()
	m.input.Blur()
	return m, m.submitCmd(text)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (m Model) runCommand(name string, args []string) (tea.Model, tea.Cmd) {
	switch name {
	case CmdHelp:
		m.showHelp = !m.showHelp
		return m, nil

	case CmdQuit:
		m.close()
		return m, tea.Quit

	case CmdStatus:
		m.toasts.Add(components.NewToast(components.ToastInfo, "Status", strings.Join(StatusLines(m.ctl), "\n")))
		return m, nil

	case CmdCopy:
		turn, ok := m.state.Transcript.LastAssistant()
		if !ok {
			m.toasts.Add(components.NewToast(components.ToastWarning, "Nothing to copy", "There is no reply yet."))
			return m, nil
		}
		write, content := m.opts.Clipboard, turn.Content
		return m, func() tea.Msg {
			return CopyDoneMsg{Err: write(content)}
		}

	case CmdExport:
		return m.exportCmd(args)
	}
	return m, nil
}

func (m Model) exportCmd(args []string) (tea.Model, tea.Cmd) {
	var formatArg, path string
	if len(args) > 0 {
		formatArg = args[0]
	}
	if len(args) > 1 {
		path = args[1]
	}
	format, err := export.ParseFormat(formatArg)
	if err != nil {
		m.toasts.Add(components.NewToast(components.ToastError, "Export failed", err.Error()))
		return m, nil
	}
	exp, err := export.New(format, nil)
	if err != nil {
		m.toasts.Add(components.NewToast(components.ToastError, "Export failed", err.Error()))
		return m, nil
	}
	transcript := m.state.Transcript
	return m, func() tea.Msg {
		written, err := export.ToFile(transcript, exp, path)
		return ExportDoneMsg{Path: written, Err: err}
	}
}

// toastFor maps a controller notification to a toast.
func toastFor(n controller.Notification) components.Toast {
	kind := components.ToastInfo
	switch n.Severity {
	case controller.SeverityWarning:
		kind = components.ToastWarning
	case controller.SeverityError:
		kind = components.ToastError
	}
	return components.NewToast(kind, n.Title, n.Message)
}
