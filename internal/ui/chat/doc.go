// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view.
//
// The Model renders a controller.Controller's session: a welcome screen
// with suggestion chips until the first message, then the transcript with
// a typing indicator while a reply is pending. Submissions run in tea.Cmds;
// the controller's state changes and notifications reach the Bubble Tea
// loop through Events.
//
// # Wiring
//
//	events := chat.NewEvents()
//	ctl := controller.New(client, controller.WithNotifier(events))
//	m := chat.New(ctl, events, theme, chat.Options{Title: "darkchat"})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
//
// # Slash Commands
//
//	/help                 toggle the help panel
//	/export [md|json] [p] write the transcript to a file
//	/copy                 copy the last reply to the clipboard
//	/status               show availability and session counters
//	/quit                 exit
package chat
