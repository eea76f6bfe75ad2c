// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/model"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
)

// StateChangedMsg carries a new session snapshot.
type StateChangedMsg struct {
	State session.State
}

// NotificationMsg carries a controller notification.
type NotificationMsg struct {
	Notification controller.Notification
}

// ProbeDoneMsg reports the end of the health check.
type ProbeDoneMsg struct {
	Err error
}

// SubmitDoneMsg reports the end of a submission.
type SubmitDoneMsg struct {
	Turn model.Turn
	Err  error
}

// ExportDoneMsg reports the result of /export.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// CopyDoneMsg reports the result of /copy.
type CopyDoneMsg struct {
	Err error
}
