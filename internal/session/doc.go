// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat session state and the pure reducer that
// advances it.
//
// State is a value. Every change goes through Reduce with one of the
// tagged actions below, which makes the session's behavior testable
// without a network or a UI.
//
// # Actions
//
//   - UserSubmitted: append the user turn and mark a request pending
//   - ProbeSucceeded, ProbeFailed: record the health check result
//   - ResponseReceived, ResponseFailed: append the assistant turn and
//     clear the pending flag
//   - TransitionStarted, TransitionSettled: bracket the cosmetic
//     welcome-to-conversation transition
//
// # Usage
//
//	st := session.Initial()
//	st, err := session.Reduce(st, session.UserSubmitted{Turn: model.NewUserTurn("hi")})
//	if errors.Is(err, session.ErrPending) {
//	    // a request is already in flight
//	}
package session
