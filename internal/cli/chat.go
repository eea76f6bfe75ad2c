// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-oriented chat command.
//
// Command: chat
// Short:   Start an interactive chat session without the full-screen UI
//
// Examples:
//   darkchat chat                       Start chatting
//   darkchat chat --plain               Print replies without markdown
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /export [md|json]   Save the transcript
//   /copy               Copy the last reply
//   /status             Show session counters
//   /quit, /q           Exit chat
//   1-9                 Send a suggestion (before the first message)
//   //text              Send a message that starts with "/"
//
// Other text starting with "/" is sent as a message. Before the first
// message a number on its own line picks that suggestion.
//   Ctrl+D              Exit chat
//
// Input history lives for the session only.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/config"
	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/export"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/chat"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

const replPrompt = "you> "

func newChatCommand(opts *GlobalOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start a line-oriented chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp("chat", opts, false)
			if err != nil {
				return err
			}
			defer a.Close()
			setupColors()

			ctx := cmd.Context()
			a.serveMetrics(ctx)

			ctl := a.controller(stderrNotifier(cmd.ErrOrStderr()), controller.WithSettleDelay(0))
			r := &repl{
				ctl:           ctl,
				out:           cmd.OutOrStdout(),
				errOut:        cmd.ErrOrStderr(),
				md:            replyRenderer(a, plain),
				suggestions:   a.cfg.Session.Suggestions,
				showCitations: a.cfg.UI.ShowCitations,
				clipboard:     clipboard.WriteAll,
			}

			_ = ctl.Probe(ctx)
			r.banner(a.cfg.UI.Title, a.cfg.UI.Subtitle)
			return r.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "do not render markdown")
	return cmd
}

// =============================================================================
// REPL
// =============================================================================

// repl drives a controller from lines of text.
type repl struct {
	ctl           *controller.Controller
	out           io.Writer
	errOut        io.Writer
	md            *components.MarkdownRenderer
	suggestions   []config.Suggestion
	showCitations bool
	clipboard     func(string) error
}

// run reads lines until /quit, Ctrl+D or ctx ends.
func (r *repl) run(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeCommand)

	for ctx.Err() == nil {
		input, err := line.Prompt(replPrompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(r.errOut, styles.RenderInfo("Use /quit or Ctrl+D to exit."))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return err
		}

		if !util.IsBlank(input) {
			line.AppendHistory(input)
		}
		if r.handleLine(ctx, input) {
			return nil
		}
	}
	return nil
}

// completeCommand completes slash commands.
func completeCommand(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, name := range chat.CommandNames() {
		if strings.HasPrefix(name, line) {
			out = append(out, name)
		}
	}
	return out
}

// banner prints the title and, before the first message, the suggestions.
func (r *repl) banner(title, subtitle string) {
	fmt.Fprintln(r.out, TitleStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintln(r.out, DimStyle.Render(subtitle))
	}
	if !r.ctl.State().IsAPIAvailable {
		fmt.Fprintln(r.out, styles.RenderWarning("The chat service is unavailable. Messages will not be sent."))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "How can I help you today?")
	for i, s := range r.suggestions {
		fmt.Fprintf(r.out, "  %s %s\n", DimStyle.Render(strconv.Itoa(i+1)+"."), s.Prompt())
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type a message, a number on its own to use a suggestion, or /help."))
}

// handleLine processes one line of input and reports whether to quit.
func (r *repl) handleLine(ctx context.Context, input string) (quit bool) {
	text := strings.TrimSpace(input)
	if util.IsBlank(text) {
		return false
	}
	var suggestions []string
	if r.ctl.State().ShowWelcome() {
		suggestions = make([]string, len(r.suggestions))
		for i, s := range r.suggestions {
			suggestions[i] = s.Prompt()
		}
	}
	in := chat.ClassifyInput(text, suggestions)
	switch in.Kind {
	case chat.InputCommand:
		return r.runCommand(in.Name, in.Args)
	case chat.InputSuggestion:
		fmt.Fprintln(r.out, PromptStyle.Render(replPrompt)+in.Text)
	}
	r.send(ctx, in.Text)
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	turn, err := r.ctl.Submit(ctx, text)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.errOut, styles.RenderError("Message not sent: "+err.Error()))
		}
		return
	}
	fmt.Fprintln(r.out, AssistantStyle.Render("Assistant"))
	fmt.Fprintln(r.out, renderReply(turn, r.md, r.showCitations))
	fmt.Fprintln(r.out)
}

func (r *repl) runCommand(name string, args []string) (quit bool) {
	switch name {
	case chat.CmdQuit:
		return true

	case chat.CmdHelp:
		fmt.Fprint(r.out, chat.HelpText())

	case chat.CmdStatus:
		for _, l := range chat.StatusLines(r.ctl) {
			fmt.Fprintln(r.out, "  "+l)
		}

	case chat.CmdCopy:
		turn, ok := r.ctl.State().Transcript.LastAssistant()
		if !ok {
			fmt.Fprintln(r.errOut, styles.RenderWarning("There is no reply to copy yet."))
			return false
		}
		if err := r.clipboard(turn.Content); err != nil {
			fmt.Fprintln(r.errOut, styles.RenderError("Copy failed: "+err.Error()))
			return false
		}
		fmt.Fprintln(r.out, styles.RenderSuccess("Copied last reply"))

	case chat.CmdExport:
		var format, path string
		if len(args) > 0 {
			format = args[0]
		}
		if len(args) > 1 {
			path = args[1]
		}
		written, err := export.Save(r.ctl.State().Transcript, format, path)
		if err != nil {
			fmt.Fprintln(r.errOut, styles.RenderError("Export failed: "+err.Error()))
			return false
		}
		fmt.Fprintln(r.out, styles.RenderSuccess("Transcript saved to "+written))
	}
	return false
}
