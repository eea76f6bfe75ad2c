// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeBackend is an httptest server standing in for the chat API.
type fakeBackend struct {
	srv *httptest.Server

	healthCalls   atomic.Int32
	chatCalls     atomic.Int32
	fallbackCalls atomic.Int32

	mu           sync.Mutex
	lastChat     chatapi.ChatRequest
	lastFallback string
	health       http.HandlerFunc
	chat         http.HandlerFunc
	fallback     http.HandlerFunc
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		health:   jsonReply(200, `{"status":"ok"}`),
		chat:     jsonReply(200, `{"response":"ok","citations":[]}`),
		fallback: jsonReply(200, `{"status":"error","message":"not configured"}`),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fb.healthCalls.Add(1)
		fb.mu.Lock()
		h := fb.health
		fb.mu.Unlock()
		h(w, r)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		fb.chatCalls.Add(1)
		var req chatapi.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		fb.mu.Lock()
		fb.lastChat = req
		h := fb.chat
		fb.mu.Unlock()
		h(w, r)
	})
	mux.HandleFunc("/simplified-chat", func(w http.ResponseWriter, r *http.Request) {
		fb.fallbackCalls.Add(1)
		fb.mu.Lock()
		fb.lastFallback = r.URL.Query().Get("message")
		h := fb.fallback
		fb.mu.Unlock()
		h(w, r)
	})
	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) client() *chatapi.Client {
	return chatapi.NewClient(&chatapi.ClientConfig{
		ChatURL:     fb.srv.URL + "/api/chat",
		HealthURL:   fb.srv.URL + "/health",
		FallbackURL: fb.srv.URL + "/simplified-chat",
		Timeout:     5 * time.Second,
	})
}

func (fb *fakeBackend) set(f func(fb *fakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	f(fb)
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

func newController(api API, opts ...Option) *Controller {
	return New(api, append([]Option{WithSettleDelay(0)}, opts...)...)
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestSubmit_SuccessWithCitation(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.chat = jsonReply(200, `{"response":"Hello","citations":[{"title":"Doc","uri":"http://x"}]}`)
	})
	ctl := newController(fb.client())

	turn, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello", turn.Content)
	require.Len(t, turn.Citations, 1)
	assert.Equal(t, "Doc", turn.Citations[0].Title)
	assert.Equal(t, "http://x", turn.Citations[0].URI)

	st := ctl.State()
	assert.Equal(t, 2, st.Len())
	assert.False(t, st.IsPending)
	assert.Equal(t, int32(0), fb.fallbackCalls.Load())
}

func TestSubmit_ErrorBodyWithUsableResponse(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.chat = jsonReply(500, `{"response":"degraded but usable"}`)
	})
	ctl := newController(fb.client())

	turn, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)

	assert.Equal(t, "degraded but usable", turn.Content)
	assert.Empty(t, turn.Citations)
	assert.Equal(t, int32(0), fb.fallbackCalls.Load(), "usable error body should skip the fallback")
}

func TestSubmit_FallbackUsed(t *testing.T) {
	tests := []struct {
		name string
		chat http.HandlerFunc
	}{
		{"500 without reply", jsonReply(500, `{"detail":"boom"}`)},
		{"502 html", jsonReply(502, `<html>bad gateway</html>`)},
		{"200 malformed", jsonReply(200, `not json`)},
		{"200 empty reply", jsonReply(200, `{"response":""}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.set(func(fb *fakeBackend) {
				fb.chat = tc.chat
				fb.fallback = jsonReply(200, `{"status":"success","response":"short answer"}`)
			})
			ctl := newController(fb.client())

			turn, err := ctl.Submit(context.Background(), "  What is Go?  ")
			require.NoError(t, err)

			assert.Equal(t, "short answer", turn.Content)
			assert.Empty(t, turn.Citations)
			assert.Equal(t, int32(1), fb.fallbackCalls.Load())
			fb.mu.Lock()
			assert.Equal(t, "What is Go?", fb.lastFallback)
			fb.mu.Unlock()
		})
	}
}

func TestSubmit_AllPathsFail(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.chat = jsonReply(500, `{}`)
		fb.fallback = jsonReply(500, `{"status":"error"}`)
	})
	ctl := newController(fb.client())

	turn, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)

	assert.Equal(t, ApologyMessage, turn.Content)
	assert.Empty(t, turn.Citations)
	assert.NotNil(t, turn.Citations)
	assert.False(t, ctl.State().IsPending)
}

func TestSubmit_NetworkFailureNotifies(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	client := chatapi.NewClient(&chatapi.ClientConfig{
		ChatURL:     url + "/api/chat",
		HealthURL:   url + "/",
		FallbackURL: url + "/simplified-chat",
		Timeout:     time.Second,
	})
	ctl := newController(client, WithNotifier(rec))

	turn, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, turn.Content)

	notes := rec.all()
	require.Len(t, notes, 1)
	assert.Equal(t, SeverityError, notes[0].Severity)
}

func TestSubmit_SendsFullTranscript(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := newController(fb.client())

	_, err := ctl.Submit(context.Background(), "first")
	require.NoError(t, err)
	_, err = ctl.Submit(context.Background(), "second")
	require.NoError(t, err)

	fb.mu.Lock()
	msgs := fb.lastChat.Messages
	fb.mu.Unlock()
	require.Len(t, msgs, 3)
	assert.Equal(t, chatapi.Message{Role: "user", Content: "first"}, msgs[0])
	assert.Equal(t, chatapi.Message{Role: "assistant", Content: "ok"}, msgs[1])
	assert.Equal(t, chatapi.Message{Role: "user", Content: "second"}, msgs[2])
}

func TestSubmit_EachTurnAddsTwo(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := newController(fb.client())

	handlers := []http.HandlerFunc{
		jsonReply(200, `{"response":"fine"}`),
		jsonReply(500, `{"response":"degraded"}`),
		jsonReply(500, `{}`),
		jsonReply(200, `garbage`),
	}
	for i, h := range handlers {
		fb.set(func(fb *fakeBackend) { fb.chat = h })
		before := ctl.State().Len()

		_, err := ctl.Submit(context.Background(), "message")
		require.NoError(t, err, "submit %d", i)

		assert.Equal(t, before+2, ctl.State().Len(), "submit %d", i)
		assert.False(t, ctl.State().IsPending, "submit %d", i)
	}
}

// =============================================================================
// INPUT / CONCURRENCY TESTS
// =============================================================================

func TestSubmit_EmptyInput(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := newController(fb.client())

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := ctl.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput, "input %q", in)
	}
	assert.Equal(t, 0, ctl.State().Len())
	assert.True(t, ctl.State().ShowWelcome())
	assert.Equal(t, int32(0), fb.chatCalls.Load())
}

func TestSubmit_RejectsWhilePending(t *testing.T) {
	fb := newFakeBackend(t)
	release := make(chan struct{})
	fb.set(func(fb *fakeBackend) {
		fb.chat = func(w http.ResponseWriter, r *http.Request) {
			<-release
			jsonReply(200, `{"response":"done"}`)(w, r)
		}
	})
	ctl := newController(fb.client())

	done := make(chan error, 1)
	go func() {
		_, err := ctl.Submit(context.Background(), "first")
		done <- err
	}()

	require.Eventually(t, func() bool { return ctl.State().IsPending }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, ctl.Busy())

	_, err := ctl.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, ctl.State().Len(), "rejected submit must not touch the transcript")

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), fb.chatCalls.Load(), "never more than one request in flight")
	assert.Equal(t, 2, ctl.State().Len())
	assert.False(t, ctl.Busy())
}

func TestSubmit_ConcurrentCallersOneWins(t *testing.T) {
	fb := newFakeBackend(t)
	var inFlight, maxInFlight atomic.Int32
	fb.set(func(fb *fakeBackend) {
		fb.chat = func(w http.ResponseWriter, r *http.Request) {
			n := inFlight.Add(1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			jsonReply(200, `{"response":"done"}`)(w, r)
		}
	})
	ctl := newController(fb.client())

	var wg sync.WaitGroup
	var accepted, rejected atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ctl.Submit(context.Background(), "hi")
			if err == nil {
				accepted.Add(1)
			} else if err == ErrBusy {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), accepted.Load()+rejected.Load())
	assert.GreaterOrEqual(t, accepted.Load(), int32(1))
	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Equal(t, int(accepted.Load())*2, ctl.State().Len())
}

// =============================================================================
// PROBE TESTS
// =============================================================================

func TestProbe_Unavailable(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) { fb.health = jsonReply(503, `{}`) })
	rec := &recorder{}
	ctl := newController(fb.client(), WithNotifier(rec))

	err := ctl.Probe(context.Background())
	require.Error(t, err)
	assert.False(t, ctl.State().IsAPIAvailable)
	assert.True(t, ctl.State().Probed)

	notes := rec.all()
	require.Len(t, notes, 1)
	assert.Equal(t, SeverityWarning, notes[0].Severity)

	turn, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, UnavailableMessage, turn.Content)
	assert.Equal(t, int32(0), fb.chatCalls.Load(), "no request when unavailable")
	assert.Equal(t, int32(0), fb.fallbackCalls.Load())
	assert.Equal(t, 2, ctl.State().Len())
}

func TestProbe_RunsOnce(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := newController(fb.client())

	require.NoError(t, ctl.Probe(context.Background()))
	fb.set(func(fb *fakeBackend) { fb.health = jsonReply(500, `{}`) })
	require.NoError(t, ctl.Probe(context.Background()), "second probe returns the first result")

	assert.Equal(t, int32(1), fb.healthCalls.Load())
	assert.True(t, ctl.State().IsAPIAvailable)
}

// =============================================================================
// WELCOME TRANSITION TESTS
// =============================================================================

func TestSubmit_WelcomeTransition(t *testing.T) {
	fb := newFakeBackend(t)

	var mu sync.Mutex
	var states []session.State
	ctl := New(fb.client(),
		WithSettleDelay(20*time.Millisecond),
		WithListener(func(s session.State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}),
	)

	start := time.Now()
	_, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	mu.Lock()
	got := append([]session.State(nil), states...)
	mu.Unlock()

	require.Len(t, got, 4)
	assert.True(t, got[0].IsWelcomeTransitioning, "transition starts first")
	assert.True(t, got[0].ShowWelcome())
	assert.False(t, got[1].IsWelcomeTransitioning, "transition settles before sending")
	assert.Equal(t, 1, got[2].Len())
	assert.True(t, got[2].IsPending)
	assert.False(t, got[2].ShowWelcome())
	assert.Equal(t, 2, got[3].Len())
	assert.False(t, got[3].IsPending)

	// Later messages never go back through the welcome view.
	_, err = ctl.Submit(context.Background(), "Again")
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, states, 6)
	for _, s := range states[4:] {
		assert.False(t, s.ShowWelcome())
		assert.False(t, s.IsWelcomeTransitioning)
	}
}

func TestSubmit_CancelDuringSettle(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := New(fb.client(), WithSettleDelay(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ctl.Submit(ctx, "Hi")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	st := ctl.State()
	assert.Equal(t, 0, st.Len())
	assert.True(t, st.ShowWelcome())
	assert.False(t, st.IsWelcomeTransitioning)
	assert.False(t, ctl.Busy())
	assert.Equal(t, int32(0), fb.chatCalls.Load())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	fb := newFakeBackend(t)
	ctl := newController(fb.client())

	var calls atomic.Int32
	unsubscribe := ctl.Subscribe(func(session.State) { calls.Add(1) })
	_, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)
	seen := calls.Load()
	assert.Positive(t, seen)

	unsubscribe()
	_, err = ctl.Submit(context.Background(), "Again")
	require.NoError(t, err)
	assert.Equal(t, seen, calls.Load())
}

// =============================================================================
// METRICS TESTS
// =============================================================================

func TestSubmit_RecordsMetrics(t *testing.T) {
	fb := newFakeBackend(t)
	m := telemetry.New()
	ctl := newController(fb.client(), WithMetrics(m))

	require.NoError(t, ctl.Probe(context.Background()))
	_, err := ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)

	fb.set(func(fb *fakeBackend) { fb.chat = jsonReply(500, `{}`) })
	_, err = ctl.Submit(context.Background(), "Hi")
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, 1, snap.ProbesOK)
	assert.Equal(t, 1, snap.Turns[telemetry.OutcomeSuccess])
	assert.Equal(t, 1, snap.Turns[telemetry.OutcomeApology])
	assert.Same(t, m, ctl.Metrics())
}

// =============================================================================
// NOTIFIER TESTS
// =============================================================================

func TestThrottle(t *testing.T) {
	rec := &recorder{}
	n := Throttle(rec, time.Hour, 2)
	for i := 0; i < 5; i++ {
		n.Notify(Notification{Title: "x"})
	}
	assert.Len(t, rec.all(), 2)

	Throttle(nil, time.Second, 1).Notify(Notification{})
}

func TestNotifierFunc(t *testing.T) {
	var got Notification
	NotifierFunc(func(n Notification) { got = n }).Notify(Notification{Title: "hi", Severity: SeverityWarning})
	assert.Equal(t, "hi", got.Title)
	assert.Equal(t, "warning", got.Severity.String())
}

func TestFailureKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&chatapi.ClientError{Type: chatapi.ErrTypeUnavailable}, "unavailable"},
		{&chatapi.ClientError{Type: chatapi.ErrTypeMalformed}, "malformed"},
		{&chatapi.ClientError{Type: chatapi.ErrTypeRequestFailed, StatusCode: 500}, "request_failed"},
		{errors.New("boom"), "unknown"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, failureKind(tc.err), "err = %v", tc.err)
	}
}

func TestSubmit_LogsFailureType(t *testing.T) {
	fb := newFakeBackend(t)
	fb.set(func(fb *fakeBackend) {
		fb.chat = jsonReply(200, `not json`)
	})
	var buf bytes.Buffer
	c := newController(fb.client(), WithLogger(zerolog.New(&buf)))

	turn, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, turn.Content)
	assert.Contains(t, buf.String(), `"error_type":"malformed"`)
}

func TestLeaveWelcome_RejectedTransitionIsLogged(t *testing.T) {
	fb := newFakeBackend(t)
	var buf bytes.Buffer
	c := newController(fb.client(), WithLogger(zerolog.New(&buf)))

	_, err := c.Submit(context.Background(), "hello")
	require.NoError(t, err)
	require.False(t, c.State().ShowWelcome())

	require.NoError(t, c.leaveWelcome(context.Background()))
	assert.Contains(t, buf.String(), "welcome transition skipped")
	assert.False(t, c.State().IsWelcomeTransitioning)
	assert.Equal(t, 2, c.State().Len())
}
