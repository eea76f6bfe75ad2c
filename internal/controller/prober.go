// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"

	"github.com/ashzansoc/darkchat-fusion/internal/session"
)

// Probe runs the session's single health check. Only the first call
// contacts the API; later calls return the first result. A failure marks
// the API unavailable and raises a warning notification.
func (c *Controller) Probe(ctx context.Context) error {
	c.probeOnce.Do(func() {
		health, err := c.api.Health(ctx)
		c.probeErr = err
		c.metrics.ObserveProbe(err == nil)

		if err != nil {
			c.log.Warn().Err(err).Msg("chat API health check failed")
			_, _ = c.apply(session.ProbeFailed{Reason: err.Error()})
			c.notifier.Notify(notifyProbeFailed)
			return
		}

		ev := c.log.Info()
		if health != nil && health.ClientStatus != "" {
			ev = ev.Str("client_status", health.ClientStatus)
		}
		ev.Msg("chat API is available")
		_, _ = c.apply(session.ProbeSucceeded{})
	})
	return c.probeErr
}
