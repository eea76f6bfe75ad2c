// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatapi provides the HTTP client for the remote chat API.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the chat API client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int

	// Response is a usable reply text carried by an error body, if any.
	Response string

	Cause error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeUnavailable covers transport failures and failed health checks.
	ErrTypeUnavailable
	// ErrTypeRequestFailed is a non-2xx response.
	ErrTypeRequestFailed
	// ErrTypeMalformed is a body that could not be decoded or had no reply.
	ErrTypeMalformed
)

// String returns the name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnavailable:
		return "unavailable"
	case ErrTypeRequestFailed:
		return "request_failed"
	case ErrTypeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnavailable   = &ClientError{Type: ErrTypeUnavailable, Message: "chat API is unavailable"}
	ErrTimeout       = &ClientError{Type: ErrTypeUnavailable, Message: "request timed out"}
	ErrEmptyResponse = &ClientError{Type: ErrTypeMalformed, Message: "response contained no reply"}
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds the endpoints and timeouts for the client.
type ClientConfig struct {
	// ChatURL receives POSTed conversations.
	ChatURL string

	// HealthURL is probed with a GET to decide availability.
	HealthURL string

	// FallbackURL is the single-message GET endpoint used when chat fails.
	FallbackURL string

	// Timeout bounds each request (default: 60s)
	Timeout time.Duration
}

// DefaultConfig returns the development configuration, matching a backend
// started locally on its default port.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		ChatURL:     "http://localhost:8000/api/chat",
		HealthURL:   "http://localhost:8000/",
		FallbackURL: "http://localhost:8000/simplified-chat",
		Timeout:     60 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the chat API's health, chat and fallback endpoints.
//
// The Client is safe for concurrent use.
//
// Example:
//
//	client := chatapi.NewClient(cfg)
//	if _, err := client.Health(ctx); err != nil {
//	    // sending is disabled for the session
//	}
//	resp, err := client.Chat(ctx, messages)
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for request lifecycle events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client. Zero values in config are filled from
// DefaultConfig.
func NewClient(config *ClientConfig, opts ...Option) *Client {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	cfg := *config
	if cfg.ChatURL == "" {
		cfg.ChatURL = defaults.ChatURL
	}
	if cfg.HealthURL == "" {
		cfg.HealthURL = defaults.HealthURL
	}
	if cfg.FallbackURL == "" {
		cfg.FallbackURL = defaults.FallbackURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	c := &Client{
		config:     &cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the client configuration.
func (c *Client) Config() ClientConfig {
	return *c.config
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health issues a single GET to the health endpoint. Any 2xx is healthy;
// the body is decoded when it parses and left empty otherwise.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.HealthURL, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", c.config.HealthURL).Msg("health check failed")
		return nil, transportError(err)
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, &ClientError{
			Type:       ErrTypeUnavailable,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status from health check: " + resp.Status,
		}
	}

	var health HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&health); err != nil {
		return &HealthResponse{}, nil
	}
	return &health, nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat POSTs the conversation and returns the decoded reply.
//
// A non-2xx status yields ErrTypeRequestFailed; if the error body still
// decodes to a non-empty reply, it is carried in ClientError.Response.
// A 2xx body that does not decode or has an empty reply yields
// ErrTypeMalformed.
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatResponse, error) {
	if messages == nil {
		messages = []Message{}
	}
	body, err := json.Marshal(ChatRequest{Messages: messages})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.ChatURL, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", c.config.ChatURL).Msg("chat request failed")
		return nil, transportError(err)
	}
	defer drainAndClose(resp.Body)

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("messages", len(messages)).
		Dur("elapsed", time.Since(start)).
		Msg("chat response")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnavailable, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	var result ChatResponse
	decodeErr := json.Unmarshal(raw, &result)

	if !isSuccess(resp.StatusCode) {
		cerr := &ClientError{
			Type:       ErrTypeRequestFailed,
			StatusCode: resp.StatusCode,
			Message:    "chat request failed: " + resp.Status,
		}
		if decodeErr == nil {
			cerr.Response = result.Response
		}
		return nil, cerr
	}

	if decodeErr != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: decodeErr}
	}
	if result.Response == "" {
		return nil, ErrEmptyResponse
	}
	if result.Citations == nil {
		result.Citations = []Citation{}
	}
	return &result, nil
}

// SimplifiedChat issues a single-message GET to the fallback endpoint.
// Only a 2xx reply with status "success" and a non-empty response is
// returned without error.
func (c *Client) SimplifiedChat(ctx context.Context, message string) (*SimplifiedResponse, error) {
	u, err := url.Parse(c.config.FallbackURL)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnavailable, Message: "invalid fallback URL", Cause: err}
	}
	q := u.Query()
	q.Set("message", message)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnavailable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("url", c.config.FallbackURL).Msg("fallback request failed")
		return nil, transportError(err)
	}
	defer drainAndClose(resp.Body)

	if !isSuccess(resp.StatusCode) {
		return nil, &ClientError{
			Type:       ErrTypeRequestFailed,
			StatusCode: resp.StatusCode,
			Message:    "fallback request failed: " + resp.Status,
		}
	}

	var result SimplifiedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeMalformed, StatusCode: resp.StatusCode, Message: "failed to decode fallback response", Cause: err}
	}
	if !result.OK() {
		msg := "fallback returned status " + strconv.Quote(result.Status)
		if result.Message != "" {
			msg += ": " + result.Message
		}
		return &result, &ClientError{Type: ErrTypeRequestFailed, StatusCode: resp.StatusCode, Message: msg}
	}
	return &result, nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUnavailable returns true if err is a transport or health failure.
func IsUnavailable(err error) bool {
	return errorType(err) == ErrTypeUnavailable
}

// IsRequestFailed returns true if err is a non-2xx response.
func IsRequestFailed(err error) bool {
	return errorType(err) == ErrTypeRequestFailed
}

// IsMalformed returns true if err is an undecodable or empty reply.
func IsMalformed(err error) bool {
	return errorType(err) == ErrTypeMalformed
}

// UsableResponse returns the reply text carried by an error body, if any.
func UsableResponse(err error) (string, bool) {
	var clientErr *ClientError
	if errors.As(err, &clientErr) && clientErr.Response != "" {
		return clientErr.Response, true
	}
	return "", false
}

func errorType(err error) ErrorType {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ErrTypeUnknown
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeUnavailable, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeUnavailable, Message: ErrUnavailable.Message, Cause: err}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
