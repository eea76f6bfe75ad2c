// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the darkchat command line.
//
// # Commands
//
//   - darkchat, darkchat tui: full-screen chat
//   - darkchat chat: line-oriented chat with input history
//   - darkchat ask <text...>: send one message and print the reply
//   - darkchat status: probe the chat API and show the resolved endpoints
//   - darkchat config show|path|init: inspect or create the config file
//
// Every command loads configuration the same way: defaults, then the config
// file, then DARKCHAT_* variables, then the persistent flags below.
//
//	--config PATH         config file (default ~/.darkchat/config.toml)
//	--origin URL          origin used for endpoint selection
//	--chat-url URL        chat endpoint override
//	--health-url URL      health endpoint override
//	--fallback-url URL    fallback endpoint override
//	--log-level LEVEL     trace, debug, info, warn, error
//	--log-file PATH       log destination
//	--metrics-addr ADDR   serve Prometheus metrics on ADDR
//
// ask and status accept --json for machine-readable output.
package cli
