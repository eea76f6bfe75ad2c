// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTurn(t *testing.T) {
	m := New()
	m.ObserveTurn(OutcomeSuccess, 200*time.Millisecond)
	m.ObserveTurn(OutcomeSuccess, 400*time.Millisecond)
	m.ObserveTurn(OutcomeApology, time.Second)
	m.ObserveTurn(OutcomeUnavailable, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("apology")))

	snap := m.Snapshot()
	assert.Equal(t, 2, snap.Turns[OutcomeSuccess])
	assert.Equal(t, 0, snap.Turns[OutcomeFallback])
	assert.Equal(t, 4, snap.TotalTurns())
	assert.Equal(t, 3, snap.Requests, "unavailable turns make no request")
	assert.InDelta(t, float64(533*time.Millisecond), float64(snap.MeanLatency), float64(5*time.Millisecond))
}

func TestObserveProbe(t *testing.T) {
	m := New()
	m.ObserveProbe(false)

	snap := m.Snapshot()
	assert.Equal(t, 0, snap.ProbesOK)
	assert.Equal(t, 1, snap.ProbesFailed)
}

func TestSetPending(t *testing.T) {
	m := New()
	m.SetPending(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))
	m.SetPending(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pending))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveTurn(OutcomeSuccess, time.Second)
	m.ObserveProbe(true)
	m.SetPending(true)

	assert.Equal(t, 0, m.Snapshot().TotalTurns())
	assert.Nil(t, m.Registry())
}

func TestSnapshot_SortedOutcomes(t *testing.T) {
	snap := New().Snapshot()
	assert.Equal(t, Outcomes(), snap.SortedOutcomes())
}

func TestOutcome_IsFailure(t *testing.T) {
	assert.True(t, OutcomeApology.IsFailure())
	assert.True(t, OutcomeUnavailable.IsFailure())
	assert.False(t, OutcomeDegraded.IsFailure())
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveTurn(OutcomeFallback, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `darkchat_turns_total{outcome="fallback"} 1`), "exposition:\n%s", text)
	assert.Contains(t, text, "darkchat_request_seconds_bucket")
}
