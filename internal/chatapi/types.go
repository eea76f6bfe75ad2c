// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message is a single role/content pair sent to the chat endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a POST to the chat endpoint.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Citation is a source reference attached to an assistant reply.
type Citation struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// ChatResponse is the body returned by the chat endpoint. Error responses
// may use the same shape with a usable Response.
type ChatResponse struct {
	Response  string     `json:"response"`
	Citations []Citation `json:"citations,omitempty"`
}

// SimplifiedResponse is the body returned by the fallback endpoint.
type SimplifiedResponse struct {
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK reports whether the fallback produced a usable reply.
func (r *SimplifiedResponse) OK() bool {
	return r != nil && r.Status == StatusSuccess && r.Response != ""
}

// StatusSuccess is the status value of a successful fallback reply.
const StatusSuccess = "success"

// HealthResponse is the optional body of the health endpoint. Only the
// status code matters for availability; the body is informational.
type HealthResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	ClientStatus string `json:"client_status,omitempty"`
}
