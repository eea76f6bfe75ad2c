// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat turns and the
// session transcript.
//
// # Key Types
//
//   - Turn: one immutable message with role, content, citations and time
//   - Citation: a source reference attached to an assistant turn
//   - Transcript: ordered, append-only value type holding a session's turns
//   - Role: user or assistant
//
// # Usage
//
//	tr := model.NewTranscript()
//	tr = tr.Append(model.NewUserTurn("Hello!"))
//	msgs := tr.ToAPIMessages()
package model
