// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashzansoc/darkchat-fusion/internal/model"
)

func mustReduce(t *testing.T, s State, a Action) State {
	t.Helper()
	next, err := Reduce(s, a)
	require.NoError(t, err, "Reduce(%s)", Name(a))
	return next
}

// =============================================================================
// INITIAL STATE TESTS
// =============================================================================

func TestInitial(t *testing.T) {
	s := Initial()

	if !s.Transcript.IsEmpty() {
		t.Error("initial transcript should be empty")
	}
	if s.IsPending {
		t.Error("initial state should not be pending")
	}
	if !s.IsAPIAvailable {
		t.Error("API should be assumed available before probing")
	}
	if s.Probed {
		t.Error("initial state should not be probed")
	}
	if !s.ShowWelcome() {
		t.Error("initial state should show welcome")
	}
}

// =============================================================================
// TURN LIFECYCLE TESTS
// =============================================================================

func TestReduce_CompletedTurnAddsTwo(t *testing.T) {
	tests := []struct {
		name    string
		resolve Action
	}{
		{"received", ResponseReceived{Turn: model.NewAssistantTurn("Hello", []model.Citation{{Title: "Doc", URI: "http://x"}})}},
		{"failed", ResponseFailed{Turn: model.NewAssistantTurn("apology", nil), Reason: "both failed"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := Initial()
			for i := 0; i < 3; i++ {
				before := s.Len()
				s = mustReduce(t, s, UserSubmitted{Turn: model.NewUserTurn("hi")})
				assert.True(t, s.IsPending)
				s = mustReduce(t, s, tc.resolve)
				assert.False(t, s.IsPending)
				assert.Equal(t, before+2, s.Len())
			}
		})
	}
}

func TestReduce_OptimisticUserTurn(t *testing.T) {
	s := mustReduce(t, Initial(), UserSubmitted{Turn: model.NewUserTurn("What is the weather in San Francisco?")})

	last, ok := s.Transcript.Last()
	require.True(t, ok)
	assert.Equal(t, model.RoleUser, last.Role)
	assert.Equal(t, "What is the weather in San Francisco?", last.Content)
	assert.True(t, s.IsPending)
}

func TestReduce_RejectsSecondSubmitWhilePending(t *testing.T) {
	s := mustReduce(t, Initial(), UserSubmitted{Turn: model.NewUserTurn("first")})

	next, err := Reduce(s, UserSubmitted{Turn: model.NewUserTurn("second")})
	if !errors.Is(err, ErrPending) {
		t.Fatalf("Reduce() error = %v, want ErrPending", err)
	}
	assert.Equal(t, 1, next.Len(), "rejected submit must not change the transcript")
	assert.True(t, next.IsPending)
}

func TestReduce_ResponseWithoutPending(t *testing.T) {
	_, err := Reduce(Initial(), ResponseReceived{Turn: model.NewAssistantTurn("stray", nil)})
	assert.ErrorIs(t, err, ErrNotPending)

	_, err = Reduce(Initial(), ResponseFailed{Turn: model.NewAssistantTurn("stray", nil)})
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestReduce_WrongRole(t *testing.T) {
	_, err := Reduce(Initial(), UserSubmitted{Turn: model.NewAssistantTurn("x", nil)})
	assert.ErrorIs(t, err, ErrWrongRole)

	s := mustReduce(t, Initial(), UserSubmitted{Turn: model.NewUserTurn("x")})
	_, err = Reduce(s, ResponseReceived{Turn: model.NewUserTurn("y")})
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestReduce_CitationsCarriedThrough(t *testing.T) {
	s := mustReduce(t, Initial(), UserSubmitted{Turn: model.NewUserTurn("hi")})
	s = mustReduce(t, s, ResponseReceived{Turn: model.NewAssistantTurn("Hello", []model.Citation{{Title: "Doc", URI: "http://x"}})})

	last, _ := s.Transcript.LastAssistant()
	assert.Equal(t, "Hello", last.Content)
	require.Len(t, last.Citations, 1)
	assert.Equal(t, "Doc", last.Citations[0].Title)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s0 := Initial()
	s1 := mustReduce(t, s0, UserSubmitted{Turn: model.NewUserTurn("hi")})
	_ = mustReduce(t, s1, ResponseReceived{Turn: model.NewAssistantTurn("yo", nil)})

	assert.Equal(t, 0, s0.Len())
	assert.False(t, s0.IsPending)
	assert.Equal(t, 1, s1.Len())
	assert.True(t, s1.IsPending)
}

// =============================================================================
// PROBE TESTS
// =============================================================================

func TestReduce_Probe(t *testing.T) {
	s := mustReduce(t, Initial(), ProbeFailed{Reason: "connection refused"})
	assert.False(t, s.IsAPIAvailable)
	assert.True(t, s.Probed)

	s = mustReduce(t, Initial(), ProbeSucceeded{})
	assert.True(t, s.IsAPIAvailable)
	assert.True(t, s.Probed)
}

func TestReduce_ProbeDoesNotTouchTranscript(t *testing.T) {
	s := mustReduce(t, Initial(), UserSubmitted{Turn: model.NewUserTurn("hi")})
	s = mustReduce(t, s, ProbeFailed{})

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.IsPending)
}

// =============================================================================
// WELCOME TESTS
// =============================================================================

func TestShowWelcome(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		welcome bool
	}{
		{"empty idle", Initial(), true},
		{"empty pending", State{Transcript: model.NewTranscript(), IsPending: true}, false},
		{"non-empty idle", State{Transcript: model.NewTranscript(model.NewUserTurn("x"), model.NewAssistantTurn("y", nil))}, false},
		{"transitioning", State{Transcript: model.NewTranscript(), IsWelcomeTransitioning: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.state.ShowWelcome(); got != tc.welcome {
				t.Errorf("ShowWelcome() = %v, want %v", got, tc.welcome)
			}
		})
	}
}

func TestCanSubmit(t *testing.T) {
	s := Initial()
	assert.True(t, s.CanSubmit())
	s = mustReduce(t, s, UserSubmitted{Turn: model.NewUserTurn("hi")})
	assert.False(t, s.CanSubmit(), "one request at a time")
	s = mustReduce(t, s, ResponseReceived{Turn: model.NewAssistantTurn("hello", nil)})
	assert.True(t, s.CanSubmit())
}

func TestReduce_WelcomeNeverReturns(t *testing.T) {
	s := Initial()
	s = mustReduce(t, s, TransitionStarted{})
	assert.True(t, s.IsWelcomeTransitioning)
	s = mustReduce(t, s, TransitionSettled{})
	assert.False(t, s.IsWelcomeTransitioning)

	s = mustReduce(t, s, UserSubmitted{Turn: model.NewUserTurn("hi")})
	assert.False(t, s.ShowWelcome())
	s = mustReduce(t, s, ResponseFailed{Turn: model.NewAssistantTurn("sorry", nil)})
	assert.False(t, s.ShowWelcome())

	_, err := Reduce(s, TransitionStarted{})
	assert.ErrorIs(t, err, ErrNotWelcome)
}

func TestReduce_UnknownAction(t *testing.T) {
	_, err := Reduce(Initial(), nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestName(t *testing.T) {
	assert.Equal(t, "user_submitted", Name(UserSubmitted{}))
	assert.Equal(t, "response_failed", Name(ResponseFailed{}))
	assert.Equal(t, "nil", Name(nil))
}
