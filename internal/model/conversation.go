// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered, append-only list of turns for one session.
// It lives in memory only.
//
// Transcript is a value type: Append returns a new transcript and never
// modifies the receiver, so a transcript held by one state snapshot is
// unaffected by later reductions.
type Transcript struct {
	turns []Turn
}

// NewTranscript builds a transcript from existing turns.
func NewTranscript(turns ...Turn) Transcript {
	return Transcript{}.Append(turns...)
}

// Append returns a new transcript with turns added at the end.
func (t Transcript) Append(turns ...Turn) Transcript {
	next := make([]Turn, len(t.turns), len(t.turns)+len(turns))
	copy(next, t.turns)
	for _, turn := range turns {
		next = append(next, turn.clone())
	}
	return Transcript{turns: next}
}

// Len returns the number of turns.
func (t Transcript) Len() int {
	return len(t.turns)
}

// IsEmpty returns true if no turns have been recorded.
func (t Transcript) IsEmpty() bool {
	return len(t.turns) == 0
}

// Turns returns a copy of the turns in order.
func (t Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	for i, turn := range t.turns {
		out[i] = turn.clone()
	}
	return out
}

// At returns the turn at index i.
func (t Transcript) At(i int) (Turn, bool) {
	if i < 0 || i >= len(t.turns) {
		return Turn{}, false
	}
	return t.turns[i].clone(), true
}

// Last returns the most recent turn.
func (t Transcript) Last() (Turn, bool) {
	return t.At(len(t.turns) - 1)
}

// LastAssistant returns the most recent assistant turn.
func (t Transcript) LastAssistant() (Turn, bool) {
	return t.lastByRole(RoleAssistant)
}

// LastUser returns the most recent user turn.
func (t Transcript) LastUser() (Turn, bool) {
	return t.lastByRole(RoleUser)
}

func (t Transcript) lastByRole(role Role) (Turn, bool) {
	for i := len(t.turns) - 1; i >= 0; i-- {
		if t.turns[i].Role == role {
			return t.turns[i].clone(), true
		}
	}
	return Turn{}, false
}

// Title returns a preview of the first user turn, or "New chat".
func (t Transcript) Title() string {
	for _, turn := range t.turns {
		if turn.IsUser() {
			return turn.Preview(50)
		}
	}
	return "New chat"
}

// =============================================================================
// WIRE CONVERSION
// =============================================================================

// ToAPIMessages converts the transcript to the chat API's message format.
// Every turn is sent, including assistant error replies.
func (t Transcript) ToAPIMessages() []chatapi.Message {
	messages := make([]chatapi.Message, 0, len(t.turns))
	for _, turn := range t.turns {
		switch turn.Role {
		case RoleUser:
			messages = append(messages, chatapi.NewUserMessage(turn.Content))
		case RoleAssistant:
			messages = append(messages, chatapi.NewAssistantMessage(turn.Content))
		}
	}
	return messages
}
