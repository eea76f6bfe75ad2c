// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

// =============================================================================
// STATE
// =============================================================================

// State is a snapshot of one chat session.
type State struct {
	// Transcript is the ordered list of turns.
	Transcript model.Transcript

	// IsPending is true while a request is in flight. At most one request
	// may be pending.
	IsPending bool

	// IsAPIAvailable starts true and is cleared by a failed probe.
	IsAPIAvailable bool

	// Probed is set once the health check has resolved either way.
	Probed bool

	// IsWelcomeTransitioning is true between TransitionStarted and
	// TransitionSettled.
	IsWelcomeTransitioning bool
}

// Initial returns the state of a fresh session: empty transcript, nothing
// pending, API assumed available until probed.
func Initial() State {
	return State{
		Transcript:     model.NewTranscript(),
		IsAPIAvailable: true,
	}
}

// ShowWelcome reports whether the welcome view should be shown: the
// transcript is empty and no request is pending. The transcript never
// shrinks, so once this turns false it stays false.
func (s State) ShowWelcome() bool {
	return s.Transcript.IsEmpty() && !s.IsPending
}

// CanSubmit reports whether a new user message would be accepted.
func (s State) CanSubmit() bool {
	return !s.IsPending
}

// Len returns the number of turns in the transcript.
func (s State) Len() int {
	return s.Transcript.Len()
}
