// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for darkchat.
//
// # Key Types
//
//   - Config: main configuration structure with all settings
//   - APIConfig: origin, development backend and endpoint overrides
//   - Endpoints: the resolved chat, health and fallback URLs
//
// # Configuration Precedence
//
// Highest first:
//   - Command-line flags (applied by the cli package)
//   - Environment variables (DARKCHAT_*), including those from .env
//   - ~/.darkchat/config.toml, config.json or config.yaml
//   - Built-in defaults
//
// # Endpoint Selection
//
// A local origin (localhost, 127.0.0.1, ::1 or empty) talks directly to the
// development backend on api.dev_base_url. Any other origin uses /api/*
// paths on that origin, as when served behind a reverse proxy.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	eps, err := cfg.Endpoints()
package config
