// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyInput rejects empty or whitespace-only text.
	ErrEmptyInput = errors.New("message is empty")

	// ErrBusy rejects a submission while another is in progress.
	ErrBusy = errors.New("a message is already being sent")
)

// DefaultSettleDelay is the pause after leaving the welcome view.
const DefaultSettleDelay = 300 * time.Millisecond

// =============================================================================
// API
// =============================================================================

// API is the subset of the chat API client the controller uses.
type API interface {
	Health(ctx context.Context) (*chatapi.HealthResponse, error)
	Chat(ctx context.Context, messages []chatapi.Message) (*chatapi.ChatResponse, error)
	SimplifiedChat(ctx context.Context, message string) (*chatapi.SimplifiedResponse, error)
}

// Listener receives every state produced by a successful reduction, in
// order. Listeners run on the goroutine that caused the change and must
// not call Submit or Probe.
type Listener func(session.State)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns one chat session. It is safe for concurrent use.
type Controller struct {
	api         API
	log         zerolog.Logger
	notifier    Notifier
	metrics     *telemetry.Metrics
	settleDelay time.Duration

	// emitMu serializes reduce-and-notify so listeners see states in order.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     session.State
	busy      bool
	listeners map[int]Listener
	nextID    int

	probeOnce sync.Once
	probeErr  error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithNotifier sets where transient notifications go. Notifications are
// throttled to a burst of 3, refilling one every 2 seconds.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = Throttle(n, 2*time.Second, 3)
	}
}

// WithMetrics records turn outcomes and probe results.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithSettleDelay overrides the welcome transition delay. Negative values
// are treated as zero.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d < 0 {
			d = 0
		}
		c.settleDelay = d
	}
}

// WithListener registers a state listener at construction.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		c.addListener(l)
	}
}

// New creates a controller for a fresh session.
func New(api API, opts ...Option) *Controller {
	c := &Controller{
		api:         api,
		log:         zerolog.Nop(),
		notifier:    nopNotifier{},
		settleDelay: DefaultSettleDelay,
		state:       session.Initial(),
		listeners:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the session.
func (c *Controller) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a submission is in progress, including the welcome
// transition that precedes the request.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy || c.state.IsPending
}

// Metrics returns the metrics recorder, which may be nil.
func (c *Controller) Metrics() *telemetry.Metrics {
	return c.metrics
}

// Subscribe registers l and returns a function that removes it.
func (c *Controller) Subscribe(l Listener) (unsubscribe func()) {
	id := c.addListener(l)
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) addListener(l Listener) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return id
}

// apply reduces a into the session and notifies listeners.
func (c *Controller) apply(a session.Action) (session.State, error) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	next, err := session.Reduce(c.state, a)
	if err != nil {
		c.mu.Unlock()
		c.log.Debug().Err(err).Str("action", session.Name(a)).Msg("action rejected")
		return next, err
	}
	c.state = next
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, c.listeners[id])
	}
	c.mu.Unlock()

	c.log.Debug().
		Str("action", session.Name(a)).
		Int("turns", next.Len()).
		Bool("pending", next.IsPending).
		Msg("state changed")

	for _, l := range listeners {
		l(next)
	}
	return next, nil
}
