// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Severity classifies a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Severity Severity
	Title    string
	Message  string
}

// Notifier receives transient notifications. Implementations must not
// block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

// throttledNotifier drops notifications beyond a token-bucket rate.
type throttledNotifier struct {
	next    Notifier
	limiter *rate.Limiter
}

// Throttle wraps n so at most burst notifications pass at once, refilling
// one per interval. Excess notifications are dropped.
func Throttle(n Notifier, interval time.Duration, burst int) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	if burst < 1 {
		burst = 1
	}
	return &throttledNotifier{
		next:    n,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (t *throttledNotifier) Notify(n Notification) {
	if t.limiter.Allow() {
		t.next.Notify(n)
	}
}

// Notification texts.
var (
	notifyProbeFailed = Notification{
		Severity: SeverityWarning,
		Title:    "Chat service unavailable",
		Message:  "Could not reach the chat API. Messages will not be sent this session.",
	}
	notifyNetworkError = Notification{
		Severity: SeverityError,
		Title:    "Network error",
		Message:  "Could not reach the chat API. Trying a fallback.",
	}
)
