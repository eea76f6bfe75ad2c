// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records session metrics with Prometheus.
//
// Each Metrics value owns its own registry, so tests and multiple sessions
// never collide on the default registry.
//
// # Metrics
//
//   - darkchat_turns_total{outcome}: assistant turns by how they resolved
//   - darkchat_probes_total{result}: health check results
//   - darkchat_request_seconds: time from send to resolution
//   - darkchat_pending: 1 while a request is in flight
//
// # Usage
//
//	m := telemetry.New()
//	m.ObserveTurn(telemetry.OutcomeSuccess, elapsed)
//	go m.Serve(ctx, ":9464", log)
package telemetry
