// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for darkchat.
//
// Components are plain render helpers over a styles.Theme. They hold no
// session state of their own; the chat model feeds them the current
// session snapshot on every render.
//
// # Components
//
//   - Header: title, "Chat model • Private" sub-line and availability badge
//   - Welcome: greeting and numbered suggestion chips
//   - RenderTurn / RenderTranscript: message bubbles with Sources lists
//   - MarkdownRenderer: glamour rendering for assistant content
//   - TypingIndicator: spinner shown while a reply is pending
//   - ToastManager: auto-dismissing notifications
package components
