// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcripts.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// CITATION TYPE
// =============================================================================

// Citation is a source reference attached to an assistant turn.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Label returns the title, or the URI when the title is blank.
func (c Citation) Label() string {
	if c.Title != "" {
		return c.Title
	}
	return c.URI
}

// CitationsFromAPI converts wire citations, dropping entries with neither
// title nor URI. The result is never nil.
func CitationsFromAPI(in []chatapi.Citation) []Citation {
	out := make([]Citation, 0, len(in))
	for _, c := range in {
		if c.Title == "" && c.URI == "" {
			continue
		}
		out = append(out, Citation{Title: c.Title, URI: c.URI})
	}
	return out
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one message in the transcript. Turns are values; once created
// they are never modified.
type Turn struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewUserTurn creates a user turn with a generated ID.
func NewUserTurn(content string) Turn {
	return Turn{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Citations: []Citation{},
		CreatedAt: time.Now(),
	}
}

// NewAssistantTurn creates an assistant turn. A nil citations slice is
// stored as empty.
func NewAssistantTurn(content string, citations []Citation) Turn {
	cites := make([]Citation, len(citations))
	copy(cites, citations)
	return Turn{
		ID:        generateID(),
		Role:      RoleAssistant,
		Content:   content,
		Citations: cites,
		CreatedAt: time.Now(),
	}
}

// IsUser returns true for user-authored turns.
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}

// HasCitations returns true if the turn carries any sources.
func (t Turn) HasCitations() bool {
	return len(t.Citations) > 0
}

// Preview returns the content truncated to maxLen display columns.
func (t Turn) Preview(maxLen int) string {
	return util.TruncateWidth(t.Content, maxLen)
}

// clone returns a copy that shares no slices with t.
func (t Turn) clone() Turn {
	c := t
	c.Citations = make([]Citation, len(t.Citations))
	copy(c.Citations, t.Citations)
	return c
}

// generateID returns a time-ordered UUID so IDs sort by creation.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
