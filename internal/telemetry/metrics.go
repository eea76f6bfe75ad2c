// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome describes how an assistant turn was produced.
type Outcome string

const (
	// OutcomeSuccess is a 2xx chat reply.
	OutcomeSuccess Outcome = "success"
	// OutcomeDegraded is a reply taken from a failed response's body.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFallback is a reply from the fallback endpoint.
	OutcomeFallback Outcome = "fallback"
	// OutcomeApology is the fixed apology after every path failed.
	OutcomeApology Outcome = "apology"
	// OutcomeUnavailable is the fixed reply when the API was marked down.
	OutcomeUnavailable Outcome = "unavailable"
)

// Outcomes lists every outcome in display order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeSuccess, OutcomeDegraded, OutcomeFallback, OutcomeApology, OutcomeUnavailable}
}

// IsFailure reports whether the outcome shows an error turn.
func (o Outcome) IsFailure() bool {
	return o == OutcomeApology || o == OutcomeUnavailable
}

// =============================================================================
// METRICS
// =============================================================================

// Metrics holds the session collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry
	turns    *prometheus.CounterVec
	probes   *prometheus.CounterVec
	latency  prometheus.Histogram
	pending  prometheus.Gauge
}

// New creates a Metrics with a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkchat",
			Name:      "turns_total",
			Help:      "Assistant turns by outcome.",
		}, []string{"outcome"}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkchat",
			Name:      "probes_total",
			Help:      "Health check results.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "darkchat",
			Name:      "request_seconds",
			Help:      "Time from send to resolved assistant turn.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "darkchat",
			Name:      "pending",
			Help:      "1 while a request is in flight.",
		}),
	}
	m.registry.MustRegister(m.turns, m.probes, m.latency, m.pending)
	for _, o := range Outcomes() {
		m.turns.WithLabelValues(string(o))
	}
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTurn records a resolved assistant turn.
func (m *Metrics) ObserveTurn(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(string(outcome)).Inc()
	if outcome != OutcomeUnavailable {
		m.latency.Observe(elapsed.Seconds())
	}
}

// ObserveProbe records a health check result.
func (m *Metrics) ObserveProbe(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.probes.WithLabelValues(result).Inc()
}

// SetPending records whether a request is in flight.
func (m *Metrics) SetPending(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.pending.Set(1)
	} else {
		m.pending.Set(0)
	}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time summary for display.
type Snapshot struct {
	Turns        map[Outcome]int
	ProbesOK     int
	ProbesFailed int
	Requests     int
	MeanLatency  time.Duration
}

// TotalTurns returns the number of assistant turns recorded.
func (s Snapshot) TotalTurns() int {
	n := 0
	for _, c := range s.Turns {
		n += c
	}
	return n
}

// Snapshot gathers the current values from the registry.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Turns: make(map[Outcome]int)}
	if m == nil {
		return snap
	}

	families, err := m.registry.Gather()
	if err != nil {
		return snap
	}
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			label := ""
			for _, lp := range metric.GetLabel() {
				label = lp.GetValue()
			}
			switch fam.GetName() {
			case "darkchat_turns_total":
				snap.Turns[Outcome(label)] = int(metric.GetCounter().GetValue())
			case "darkchat_probes_total":
				if label == "ok" {
					snap.ProbesOK = int(metric.GetCounter().GetValue())
				} else {
					snap.ProbesFailed = int(metric.GetCounter().GetValue())
				}
			case "darkchat_request_seconds":
				h := metric.GetHistogram()
				snap.Requests = int(h.GetSampleCount())
				if h.GetSampleCount() > 0 {
					mean := h.GetSampleSum() / float64(h.GetSampleCount())
					snap.MeanLatency = time.Duration(mean * float64(time.Second))
				}
			}
		}
	}
	return snap
}

// SortedOutcomes returns the outcomes present in s in display order.
func (s Snapshot) SortedOutcomes() []Outcome {
	order := make(map[Outcome]int)
	for i, o := range Outcomes() {
		order[o] = i
	}
	out := make([]Outcome, 0, len(s.Turns))
	for o := range s.Turns {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i]] < order[out[j]] })
	return out
}

// =============================================================================
// HTTP EXPOSITION
// =============================================================================

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
