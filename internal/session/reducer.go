// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action is one of the tagged session actions.
type Action interface {
	actionName() string
}

// UserSubmitted appends a user turn and marks a request pending.
type UserSubmitted struct {
	Turn model.Turn
}

// ProbeSucceeded records a successful health check.
type ProbeSucceeded struct{}

// ProbeFailed records a failed health check.
type ProbeFailed struct {
	Reason string
}

// ResponseReceived appends the assistant's reply and clears pending.
type ResponseReceived struct {
	Turn model.Turn
}

// ResponseFailed appends an assistant-authored error turn and clears
// pending. Reason is for logging; Turn carries the visible text.
type ResponseFailed struct {
	Turn   model.Turn
	Reason string
}

// TransitionStarted begins the welcome-to-conversation transition.
type TransitionStarted struct{}

// TransitionSettled ends the welcome-to-conversation transition.
type TransitionSettled struct{}

func (UserSubmitted) actionName() string     { return "user_submitted" }
func (ProbeSucceeded) actionName() string    { return "probe_succeeded" }
func (ProbeFailed) actionName() string       { return "probe_failed" }
func (ResponseReceived) actionName() string  { return "response_received" }
func (ResponseFailed) actionName() string    { return "response_failed" }
func (TransitionStarted) actionName() string { return "transition_started" }
func (TransitionSettled) actionName() string { return "transition_settled" }

// Name returns a stable identifier for a, used in logs.
func Name(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.actionName()
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPending rejects a submission while a request is in flight.
	ErrPending = errors.New("a request is already pending")

	// ErrNotPending rejects a response when no request is in flight.
	ErrNotPending = errors.New("no request is pending")

	// ErrWrongRole rejects a turn authored by the wrong party for the action.
	ErrWrongRole = errors.New("turn has the wrong role for this action")

	// ErrNotWelcome rejects a transition when the welcome view is not shown.
	ErrNotWelcome = errors.New("welcome view is not shown")

	// ErrUnknownAction rejects an action the reducer does not handle.
	ErrUnknownAction = errors.New("unknown action")
)

// =============================================================================
// REDUCER
// =============================================================================

// Reduce applies a to s and returns the next state. It is pure: s is not
// modified, and on error s is returned unchanged alongside the error.
func Reduce(s State, a Action) (State, error) {
	switch act := a.(type) {
	case UserSubmitted:
		if s.IsPending {
			return s, ErrPending
		}
		if act.Turn.Role != model.RoleUser {
			return s, fmt.Errorf("%w: %s on %s", ErrWrongRole, act.Turn.Role, Name(a))
		}
		s.Transcript = s.Transcript.Append(act.Turn)
		s.IsPending = true
		return s, nil

	case ProbeSucceeded:
		s.IsAPIAvailable = true
		s.Probed = true
		return s, nil

	case ProbeFailed:
		s.IsAPIAvailable = false
		s.Probed = true
		return s, nil

	case ResponseReceived:
		return resolve(s, act.Turn, a)

	case ResponseFailed:
		return resolve(s, act.Turn, a)

	case TransitionStarted:
		if !s.ShowWelcome() {
			return s, ErrNotWelcome
		}
		s.IsWelcomeTransitioning = true
		return s, nil

	case TransitionSettled:
		s.IsWelcomeTransitioning = false
		return s, nil

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

func resolve(s State, turn model.Turn, a Action) (State, error) {
	if !s.IsPending {
		return s, ErrNotPending
	}
	if turn.Role != model.RoleAssistant {
		return s, fmt.Errorf("%w: %s on %s", ErrWrongRole, turn.Role, Name(a))
	}
	s.Transcript = s.Transcript.Append(turn)
	s.IsPending = false
	return s, nil
}
