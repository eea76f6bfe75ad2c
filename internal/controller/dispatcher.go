// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"time"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
	"github.com/ashzansoc/darkchat-fusion/internal/model"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
	"github.com/ashzansoc/darkchat-fusion/internal/telemetry"
	"github.com/ashzansoc/darkchat-fusion/internal/util"
)

// Fixed assistant replies.
const (
	// UnavailableMessage answers every message once the health check failed.
	UnavailableMessage = "I'm sorry, the chat service is currently unavailable. Please try again later."

	// ApologyMessage answers a message when the chat and fallback requests
	// both failed.
	ApologyMessage = "I apologize, but I encountered an error while processing your request. " +
		"The system might be experiencing technical difficulties. " +
		"Please try again later or contact support if the problem persists."
)

// reply is the resolved content of an assistant turn.
type reply struct {
	content   string
	citations []model.Citation
	outcome   telemetry.Outcome
	reason    string
}

// Submit sends text as the next user message and returns the assistant
// turn it resolved to. The returned turn is already in the transcript.
//
// If the welcome view is showing, Submit first records the transition and
// waits the settle delay. Cancelling ctx during that wait returns the
// context error without recording the message. Once the user turn is
// recorded Submit always records an assistant turn and clears pending,
// whatever happens to the request.
func (c *Controller) Submit(ctx context.Context, text string) (model.Turn, error) {
	text = util.NormalizeInput(text)
	if text == "" {
		return model.Turn{}, ErrEmptyInput
	}

	c.mu.Lock()
	if c.busy || !c.state.CanSubmit() {
		c.mu.Unlock()
		return model.Turn{}, ErrBusy
	}
	c.busy = true
	leaveWelcome := c.state.ShowWelcome() && !c.state.IsWelcomeTransitioning
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	if leaveWelcome {
		if err := c.leaveWelcome(ctx); err != nil {
			return model.Turn{}, err
		}
	}

	start := time.Now()
	st, err := c.apply(session.UserSubmitted{Turn: model.NewUserTurn(text)})
	if err != nil {
		if errors.Is(err, session.ErrPending) {
			return model.Turn{}, ErrBusy
		}
		return model.Turn{}, err
	}
	c.metrics.SetPending(true)

	r := c.dispatch(ctx, st, text)
	turn := model.NewAssistantTurn(r.content, r.citations)

	var action session.Action = session.ResponseReceived{Turn: turn}
	if r.outcome.IsFailure() {
		action = session.ResponseFailed{Turn: turn, Reason: r.reason}
	}
	if _, err := c.apply(action); err != nil {
		// Only this goroutine can resolve the pending request.
		c.log.Error().Err(err).Msg("failed to record assistant turn")
	}

	elapsed := time.Since(start)
	c.metrics.SetPending(false)
	c.metrics.ObserveTurn(r.outcome, elapsed)
	c.log.Info().
		Str("outcome", string(r.outcome)).
		Int("citations", len(r.citations)).
		Dur("elapsed", elapsed).
		Msg("turn resolved")

	return turn, nil
}

// leaveWelcome brackets the settle delay with transition actions. A
// rejected transition is skipped; the message is still sent.
func (c *Controller) leaveWelcome(ctx context.Context) error {
	if _, err := c.apply(session.TransitionStarted{}); err != nil {
		c.log.Debug().Err(err).Msg("welcome transition skipped")
		return nil
	}
	defer func() {
		if _, err := c.apply(session.TransitionSettled{}); err != nil {
			c.log.Debug().Err(err).Msg("welcome transition not settled")
		}
	}()

	if c.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch resolves the pending request to a reply. st is the state right
// after the user turn was recorded.
func (c *Controller) dispatch(ctx context.Context, st session.State, text string) reply {
	if !st.IsAPIAvailable {
		return reply{
			content:   UnavailableMessage,
			citations: []model.Citation{},
			outcome:   telemetry.OutcomeUnavailable,
			reason:    "chat API unavailable",
		}
	}

	resp, err := c.api.Chat(ctx, st.Transcript.ToAPIMessages())
	if err == nil {
		return reply{
			content:   resp.Response,
			citations: model.CitationsFromAPI(resp.Citations),
			outcome:   telemetry.OutcomeSuccess,
		}
	}

	kind := failureKind(err)
	c.log.Warn().Err(err).Str("error_type", kind).Msg("chat request failed")
	if chatapi.IsUnavailable(err) && ctx.Err() == nil {
		c.notifier.Notify(notifyNetworkError)
	}

	if content, ok := chatapi.UsableResponse(err); ok {
		return reply{
			content:   content,
			citations: []model.Citation{},
			outcome:   telemetry.OutcomeDegraded,
		}
	}

	fb, ferr := c.api.SimplifiedChat(ctx, text)
	if ferr == nil && fb.OK() {
		return reply{
			content:   fb.Response,
			citations: []model.Citation{},
			outcome:   telemetry.OutcomeFallback,
		}
	}

	c.log.Warn().Err(ferr).Msg("fallback request failed")
	reason := kind + ": " + err.Error()
	if ferr != nil {
		reason += "; fallback: " + ferr.Error()
	}
	return reply{
		content:   ApologyMessage,
		citations: []model.Citation{},
		outcome:   telemetry.OutcomeApology,
		reason:    reason,
	}
}

// failureKind names a chat failure for logs. A malformed 2xx body is
// handled as a failed request but keeps its own label.
func failureKind(err error) string {
	switch {
	case chatapi.IsUnavailable(err):
		return "unavailable"
	case chatapi.IsMalformed(err):
		return "malformed"
	case chatapi.IsRequestFailed(err):
		return "request_failed"
	default:
		return "unknown"
	}
}
