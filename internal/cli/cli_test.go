// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/config"
	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/ui/styles"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// backend is a fake chat API.
type backend struct {
	*httptest.Server

	mu       sync.Mutex
	health   int
	chat     http.HandlerFunc
	fallback http.HandlerFunc
	lastSent string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{health: http.StatusOK}
	b.chat = jsonReply(http.StatusOK, `{"response":"Hello","citations":[{"title":"Doc","uri":"http://x"}]}`)
	b.fallback = jsonReply(http.StatusInternalServerError, `{}`)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := b.health
		b.mu.Unlock()
		jsonReply(status, `{"status":"ok"}`)(w, r)
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req chatapi.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		if n := len(req.Messages); n > 0 {
			b.lastSent = req.Messages[n-1].Content
		}
		h := b.chat
		b.mu.Unlock()
		h(w, r)
	})
	mux.HandleFunc("/simplified-chat", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		h := b.fallback
		b.mu.Unlock()
		h(w, r)
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func (b *backend) sent() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSent
}

// flags points a command at the backend.
func (b *backend) flags() []string {
	return []string{
		"--chat-url", b.URL + "/api/chat",
		"--health-url", b.URL + "/health",
		"--fallback-url", b.URL + "/simplified-chat",
	}
}

// isolate keeps tests away from the developer's config and environment.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, config.EnvPrefix) {
			key := strings.SplitN(kv, "=", 2)[0]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	return home
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

type jsonEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
	Command string          `json:"command"`
}

func decodeEnvelope(t *testing.T, s string) jsonEnvelope {
	t.Helper()
	var env jsonEnvelope
	require.NoError(t, json.Unmarshal([]byte(s), &env), s)
	return env
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_JSON(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	out, _, err := execute(t, append(b.flags(), "ask", "--json", "What", "is", "Go?")...)
	require.NoError(t, err)

	env := decodeEnvelope(t, out)
	assert.True(t, env.Success)
	assert.Equal(t, "ask", env.Command)

	var data AskData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Hello", data.Response)
	assert.Equal(t, "success", data.Outcome)
	require.Len(t, data.Citations, 1)
	assert.Equal(t, "Doc", data.Citations[0].Title)
	assert.NotEmpty(t, data.TurnID)

	assert.Equal(t, "What is Go?", b.sent())
}

func TestAsk_PlainText(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	out, _, err := execute(t, append(b.flags(), "ask", "hi")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "Sources")
	assert.Contains(t, out, "1. Doc")
}

func TestAsk_AllPathsFail(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	b.set(func(b *backend) {
		b.chat = jsonReply(http.StatusInternalServerError, `{"detail":"boom"}`)
	})

	out, _, err := execute(t, append(b.flags(), "ask", "hi")...)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCodeFor(err))
	assert.Contains(t, out, controller.ApologyMessage)
}

func TestAsk_Unavailable(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	b.set(func(b *backend) { b.health = http.StatusServiceUnavailable })

	out, errOut, err := execute(t, append(b.flags(), "ask", "--json", "hi")...)
	require.NoError(t, err, "a resolved turn is printed even when it is the fixed reply")

	var data AskData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &data))
	assert.Equal(t, controller.UnavailableMessage, data.Response)
	assert.Equal(t, "unavailable", data.Outcome)
	assert.Empty(t, b.sent(), "no chat request while unavailable")
	assert.NotEmpty(t, errOut, "the probe failure is reported on stderr")
}

func TestAsk_RequiresMessage(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "ask")
	assert.Error(t, err)
}

func TestAskText(t *testing.T) {
	got, err := askText(strings.NewReader("  from stdin \n"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)

	got, err = askText(nil, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a b", got)
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatus_JSON(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	out, _, err := execute(t, append(b.flags(), "status", "--json")...)
	require.NoError(t, err)

	env := decodeEnvelope(t, out)
	assert.True(t, env.Success)
	var data StatusData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.True(t, data.Available)
	assert.Equal(t, "ok", data.Health)
	assert.Equal(t, "development", data.Environment)
	assert.Equal(t, b.URL+"/api/chat", data.Endpoints.Chat)
}

func TestStatus_Unavailable(t *testing.T) {
	isolate(t)
	b := newBackend(t)
	b.set(func(b *backend) { b.health = http.StatusBadGateway })

	out, _, err := execute(t, append(b.flags(), "status")...)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, ExitCodeFor(err))
	assert.True(t, isSilent(err))
	assert.Contains(t, out, "unavailable")
	assert.Contains(t, out, b.URL+"/health")
}

func TestStatus_DeployedOrigin(t *testing.T) {
	isolate(t)
	b := newBackend(t)

	out, _, _ := execute(t, "--origin", b.URL, "status", "--json")
	var data StatusData
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &data))
	// httptest listens on 127.0.0.1, which is a local origin.
	assert.Equal(t, "development", data.Environment)

	out, _, _ = execute(t, "--origin", "https://chat.example.com", "--health-url", b.URL+"/health", "status", "--json")
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, out).Data, &data))
	assert.Equal(t, "deployed", data.Environment)
	assert.Equal(t, "https://chat.example.com/api/chat", data.Endpoints.Chat)
	assert.True(t, data.Available)
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestConfigInitShowPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "darkchat.toml")

	out, _, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, _, err = execute(t, "--config", path, "config", "init")
	require.Error(t, err, "existing file is not overwritten")
	assert.Equal(t, ExitUsageError, ExitCodeFor(err))

	_, _, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, _, err = execute(t, "--config", path, "--origin", "https://chat.example.com", "config", "show", "--format", "json")
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "https://chat.example.com", cfg.API.Origin, "flags override the file")

	out, _, err = execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))
}

func TestConfigPath_Default(t *testing.T) {
	home := isolate(t)
	out, errOut, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".darkchat", "config.toml"), strings.TrimSpace(out))
	assert.Contains(t, errOut, "not created yet")
}

func TestConfig_InvalidFlag(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "--chat-url", "not a url", "config", "show")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCodeFor(err))
}

// =============================================================================
// REPL TESTS
// =============================================================================

func newTestREPL(t *testing.T, b *backend) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	client := chatapi.NewClient(&chatapi.ClientConfig{
		ChatURL:     b.URL + "/api/chat",
		HealthURL:   b.URL + "/health",
		FallbackURL: b.URL + "/simplified-chat",
		Timeout:     5 * time.Second,
	})
	var out, errOut bytes.Buffer
	r := &repl{
		ctl:           controller.New(client, controller.WithSettleDelay(0)),
		out:           &out,
		errOut:        &errOut,
		suggestions:   config.DefaultSuggestions(),
		showCitations: true,
		clipboard:     func(string) error { return nil },
	}
	return r, &out, &errOut
}

func TestREPL_SendAndSuggestion(t *testing.T) {
	b := newBackend(t)
	r, out, _ := newTestREPL(t, b)
	ctx := context.Background()

	r.banner("darkchat", "Chat model • Private")
	assert.Contains(t, out.String(), "How can I help you today?")
	assert.Contains(t, out.String(), "4. What is the weather in San Francisco?")

	assert.False(t, r.handleLine(ctx, "4"))
	assert.Equal(t, "What is the weather in San Francisco?", b.sent())
	assert.Contains(t, out.String(), "Hello")
	assert.Equal(t, 2, r.ctl.State().Len())

	// Numbers are ordinary text once the conversation has started.
	assert.False(t, r.handleLine(ctx, "4"))
	assert.Equal(t, "4", b.sent())
	assert.Equal(t, 4, r.ctl.State().Len())
}

func TestREPL_NumberLedMessageOnWelcome(t *testing.T) {
	b := newBackend(t)
	r, _, _ := newTestREPL(t, b)

	assert.False(t, r.handleLine(context.Background(), "2 eggs or 3?"))
	assert.Equal(t, "2 eggs or 3?", b.sent())
	assert.Equal(t, 2, r.ctl.State().Len())
}

func TestREPL_BlankLineIgnored(t *testing.T) {
	b := newBackend(t)
	r, _, _ := newTestREPL(t, b)
	assert.False(t, r.handleLine(context.Background(), "   \t"))
	assert.Equal(t, 0, r.ctl.State().Len())
}

func TestREPL_Commands(t *testing.T) {
	b := newBackend(t)
	r, out, errOut := newTestREPL(t, b)
	ctx := context.Background()

	var copied string
	r.clipboard = func(s string) error {
		copied = s
		return nil
	}

	r.handleLine(ctx, "/copy")
	assert.Contains(t, errOut.String(), "no reply to copy")

	r.handleLine(ctx, "/export")
	assert.Contains(t, errOut.String(), "Export failed")

	r.handleLine(ctx, "hello")
	r.handleLine(ctx, "/copy")
	assert.Equal(t, "Hello", copied)

	path := filepath.Join(t.TempDir(), "chat.md")
	r.handleLine(ctx, "/export md "+path)
	assert.Contains(t, out.String(), "Transcript saved to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello")

	out.Reset()
	r.handleLine(ctx, "/status")
	assert.Contains(t, out.String(), "Messages: 2")

	r.handleLine(ctx, "/help")
	assert.Contains(t, out.String(), "/export")

	r.handleLine(ctx, "/usr/lib is for what?")
	assert.Equal(t, "/usr/lib is for what?", b.sent(), "unknown slash text is a message")

	r.handleLine(ctx, "//help me")
	assert.Equal(t, "/help me", b.sent())

	assert.True(t, r.handleLine(ctx, "/quit"))
	assert.True(t, r.handleLine(ctx, "/q"))
}

func TestREPL_CopyFailure(t *testing.T) {
	b := newBackend(t)
	r, _, errOut := newTestREPL(t, b)
	r.clipboard = func(string) error { return errors.New("no clipboard") }

	r.handleLine(context.Background(), "hello")
	r.handleLine(context.Background(), "/copy")
	assert.Contains(t, errOut.String(), "no clipboard")
}

func TestStderrNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := stderrNotifier(&buf)

	n.Notify(controller.Notification{Severity: controller.SeverityWarning, Title: "Chat service unavailable"})
	n.Notify(controller.Notification{Severity: controller.SeverityError, Title: "Network error", Message: "connection refused"})
	n.Notify(controller.Notification{Severity: controller.SeverityInfo, Title: "Reconnected"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], styles.StatusIndicators.Warning+" Chat service unavailable")
	assert.Contains(t, lines[1], styles.StatusIndicators.Error+" Network error: connection refused")
	assert.Contains(t, lines[2], styles.StatusIndicators.Info+" Reconnected")
}

func TestCompleteCommand(t *testing.T) {
	assert.Equal(t, []string{"/export"}, completeCommand("/ex"))
	assert.Len(t, completeCommand("/"), 5)
	assert.Nil(t, completeCommand("hello"))
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("x"), ExitGeneralError},
		{"config", configError("x", errors.New("bad")), ExitConfigError},
		{"network", &CommandError{Command: "status", Code: ExitNetworkError}, ExitNetworkError},
		{"cancelled", context.Canceled, ExitInterrupted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("refused")
	err := &CommandError{Command: "status", Reason: "chat API unavailable", Err: cause}
	assert.Equal(t, "status: chat API unavailable: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
