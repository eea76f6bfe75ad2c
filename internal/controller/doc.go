// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller drives a chat session against the remote chat API.
//
// A Controller owns one session.State and changes it only through
// session.Reduce. It combines:
//
//   - Probe: a single health check when the session starts. A failure
//     marks the API unavailable for the rest of the session and raises a
//     warning notification. It is never retried.
//   - Submit: the dispatcher. It leaves the welcome view if needed, appends
//     the user turn optimistically, calls the chat endpoint and resolves to
//     exactly one assistant turn, falling back from the chat reply to an
//     error body's reply, then to the fallback endpoint, then to a fixed
//     apology.
//
// Submit never returns transport or API errors. Its only errors are
// ErrEmptyInput, ErrBusy and context cancellation before the user turn
// was recorded.
//
// # Usage
//
//	ctl := controller.New(client,
//	    controller.WithLogger(log),
//	    controller.WithNotifier(notifier),
//	)
//	_ = ctl.Probe(ctx)
//	turn, err := ctl.Submit(ctx, "Hello")
package controller
