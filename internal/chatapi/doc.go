// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatapi provides the HTTP client for the remote chat API.
//
// The API exposes three endpoints, all configured explicitly:
//
//   - Health: GET, any 2xx means the API is available
//   - Chat: POST {"messages":[{"role","content"}]} returning
//     {"response", "citations":[{"title","uri"}]}
//   - Fallback: GET ?message=<text> returning {"status":"success","response"}
//
// # Error Handling
//
// Every failure is a *ClientError with one of three types:
//
//   - ErrTypeUnavailable: transport failure, timeout or failed health check
//   - ErrTypeRequestFailed: non-2xx status
//   - ErrTypeMalformed: undecodable body or empty reply
//
// A failed chat request whose body still carries a reply exposes it via
// UsableResponse.
//
// # Usage
//
//	client := chatapi.NewClient(&chatapi.ClientConfig{
//	    ChatURL:     "https://chat.example.com/api/chat",
//	    HealthURL:   "https://chat.example.com/api/health",
//	    FallbackURL: "https://chat.example.com/api/simplified-chat",
//	})
//	resp, err := client.Chat(ctx, []chatapi.Message{chatapi.NewUserMessage("Hi")})
package chatapi
