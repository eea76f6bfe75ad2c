// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot message command.
//
// Command: ask
// Short:   Send one message and print the reply
//
// Examples:
//   darkchat ask "What is Go?"          Print the reply
//   darkchat ask --json What is Go?     Reply as JSON
//   echo "hi" | darkchat ask -          Read the message from stdin
//
// Replies are rendered as markdown when stdout is a terminal and
// ui.markdown is enabled.

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/model"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

type askOptions struct {
	json  bool
	plain bool
}

func newAskCommand(opts *GlobalOptions) *cobra.Command {
	ao := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, ao, args)
		},
	}
	cmd.Flags().BoolVar(&ao.json, "json", false, "print the reply as JSON")
	cmd.Flags().BoolVar(&ao.plain, "plain", false, "do not render markdown")
	return cmd
}

func runAsk(cmd *cobra.Command, opts *GlobalOptions, ao *askOptions, args []string) error {
	text, err := askText(cmd.InOrStdin(), args)
	if err != nil {
		return &CommandError{Command: "ask", Reason: "could not read message", Code: ExitUsageError, Err: err}
	}

	a, err := newApp("ask", opts, false)
	if err != nil {
		return err
	}
	defer a.Close()
	setupColors()

	out := cmd.OutOrStdout()
	ctl := a.controller(stderrNotifier(cmd.ErrOrStderr()), controller.WithSettleDelay(0))
	ctx := cmd.Context()
	_ = ctl.Probe(ctx)

	start := time.Now()
	turn, err := ctl.Submit(ctx, text)
	if err != nil {
		if ao.json {
			_ = NewJSONErrorResponse("ask", nil, err).Write(out)
		}
		return &CommandError{Command: "ask", Reason: "message not sent", Code: ExitUsageError, Err: err, Silent: ao.json}
	}

	outcome := lastOutcome(a.metrics)
	if ao.json {
		return NewJSONResponse("ask", AskData{
			Response:   turn.Content,
			Citations:  turn.Citations,
			Outcome:    string(outcome),
			TurnID:     turn.ID,
			DurationMs: time.Since(start).Milliseconds(),
		}).Write(out)
	}

	fmt.Fprintln(out, renderReply(turn, replyRenderer(a, ao.plain), a.cfg.UI.ShowCitations))
	if outcome.IsFailure() {
		return &CommandError{Command: "ask", Reason: "no reply from the chat API", Code: ExitNetworkError, Silent: true}
	}
	return nil
}

// askText joins the arguments, reading stdin when the only argument is "-".
func askText(in io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}

// lastOutcome returns the outcome of the only turn a one-shot session has.
func lastOutcome(m *telemetry.Metrics) telemetry.Outcome {
	snap := m.Snapshot()
	for _, o := range snap.SortedOutcomes() {
		if snap.Turns[o] > 0 {
			return o
		}
	}
	return telemetry.OutcomeSuccess
}

// replyRenderer returns the markdown renderer for terminal output, or nil
// for plain text.
func replyRenderer(a *app, plain bool) *components.MarkdownRenderer {
	if plain || !a.cfg.UI.Markdown || !IsStdoutTTY() {
		return nil
	}
	theme := styles.NewTheme(styles.ParseMode(a.cfg.UI.Theme))
	md, err := components.NewMarkdownRenderer(GetTerminalWidth()-4, theme.IsDark)
	if err != nil {
		a.log.Warn().Err(err).Msg("markdown renderer unavailable")
		return nil
	}
	return md
}

// renderReply formats an assistant turn for line-oriented output.
func renderReply(turn model.Turn, md *components.MarkdownRenderer, showCitations bool) string {
	var sb strings.Builder
	if md != nil {
		sb.WriteString(md.Render(turn.Content))
	} else {
		sb.WriteString(turn.Content)
	}

	if showCitations && turn.HasCitations() {
		sb.WriteString("\n\n")
		sb.WriteString(DimStyle.Render("Sources"))
		for i, c := range turn.Citations {
			line := fmt.Sprintf("\n  %d. %s", i+1, c.Label())
			if c.URI != "" && c.URI != c.Label() {
				line += " " + DimStyle.Render(c.URI)
			}
			sb.WriteString(line)
		}
	}
	return sb.String()
}
