// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/components"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command describes a slash command.
type Command struct {
	Name        string
	Args        string
	Description string
}

// Slash command names.
const (
	CmdHelp   = "/help"
	CmdExport = "/export"
	CmdCopy   = "/copy"
	CmdStatus = "/status"
	CmdQuit   = "/quit"
)

// Commands lists the slash commands in help order.
var Commands = []Command{
	{Name: CmdHelp, Description: "show keys and commands"},
	{Name: CmdExport, Args: "[md|json] [path]", Description: "save the transcript to a file"},
	{Name: CmdCopy, Description: "copy the last reply to the clipboard"},
	{Name: CmdStatus, Description: "show connection and session counters"},
	{Name: CmdQuit, Description: "exit darkchat"},
}

// commandAliases maps shorthand to command names.
var commandAliases = map[string]string{
	"/h":    CmdHelp,
	"/?":    CmdHelp,
	"/q":    CmdQuit,
	"/exit": CmdQuit,
}

// ParseCommand splits slash-command input into a canonical name and its
// arguments. ok is false when input is not a slash command. Unknown
// commands are returned as typed.
func ParseCommand(input string) (name string, args []string, ok bool) {
	fields := strings.Fields(input)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	name = strings.ToLower(fields[0])
	if alias, found := commandAliases[name]; found {
		name = alias
	}
	return name, fields[1:], true
}

// IsKnownCommand reports whether name is a slash command.
func IsKnownCommand(name string) bool {
	for _, c := range Commands {
		if c.Name == name {
			return true
		}
	}
	return false
}

// InputKind says how a submitted line is handled.
type InputKind int

const (
	// InputMessage is sent to the assistant as typed.
	InputMessage InputKind = iota
	// InputCommand is a known slash command.
	InputCommand
	// InputSuggestion picks a suggestion by number.
	InputSuggestion
)

// Input is a classified line of user input.
type Input struct {
	Kind InputKind
	// Text is the message to send, or the chosen suggestion's prompt.
	Text string
	Name string
	Args []string
}

// ClassifyInput decides whether text is a slash command, a suggestion
// number or a message. Only known commands are intercepted; any other
// slash-leading text is a message, and "//" sends a message starting
// with a single "/". suggestions holds the prompts that may be picked
// by typing their number alone; pass nil once the welcome view is gone.
func ClassifyInput(text string, suggestions []string) Input {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "//") {
		return Input{Kind: InputMessage, Text: trimmed[1:]}
	}
	if name, args, ok := ParseCommand(trimmed); ok && IsKnownCommand(name) {
		return Input{Kind: InputCommand, Name: name, Args: args}
	}
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(suggestions) {
		return Input{Kind: InputSuggestion, Text: suggestions[n-1]}
	}
	return Input{Kind: InputMessage, Text: text}
}

// CommandNames returns the command names, for completion.
func CommandNames() []string {
	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	return names
}

// HelpText renders the command list, one per line.
func HelpText() string {
	var sb strings.Builder
	for _, c := range Commands {
		usage := c.Name
		if c.Args != "" {
			usage += " " + c.Args
		}
		fmt.Fprintf(&sb, "  %-26s %s\n", usage, c.Description)
	}
	fmt.Fprintf(&sb, "  %-26s %s\n", "//text", "send a message that starts with /")
	fmt.Fprintf(&sb, "  %-26s %s\n", "<n> Enter", "send suggestion n (number alone, before the first message)")
	return sb.String()
}

// StatusLines summarizes the session for /status.
func StatusLines(ctl *controller.Controller) []string {
	st := ctl.State()
	lines := []string{
		"API: " + components.AvailabilityOf(st).String(),
		fmt.Sprintf("Messages: %d", st.Len()),
	}
	if st.IsPending {
		lines = append(lines, "Waiting for a reply")
	}

	m := ctl.Metrics()
	if m == nil {
		return lines
	}
	snap := m.Snapshot()
	if snap.TotalTurns() > 0 {
		var parts []string
		for _, o := range snap.SortedOutcomes() {
			if snap.Turns[o] == 0 {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s %d", o, snap.Turns[o]))
		}
		lines = append(lines, "Replies: "+strings.Join(parts, ", "))
	}
	if snap.Requests > 0 {
		lines = append(lines, "Mean latency: "+formatLatency(snap))
	}
	return lines
}

func formatLatency(s telemetry.Snapshot) string {
	ms := s.MeanLatency.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", s.MeanLatency.Seconds())
}
