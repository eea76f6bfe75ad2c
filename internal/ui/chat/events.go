// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashzansoc/darkchat-fusion/internal/controller"
	"github.com/ashzansoc/darkchat-fusion/internal/session"
)

// eventBuffer bounds how far the controller can run ahead of the UI.
const eventBuffer = 64

// Events carries controller output into the Bubble Tea loop. It is a
// controller.Notifier and a controller.Listener source; Wait returns the
// command that delivers the next event.
type Events struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewEvents creates an event bridge.
func NewEvents() *Events {
	return &Events{
		ch:   make(chan tea.Msg, eventBuffer),
		done: make(chan struct{}),
	}
}

// Notify queues a notification. Notifications are dropped when the buffer
// is full.
func (e *Events) Notify(n controller.Notification) {
	select {
	case e.ch <- NotificationMsg{Notification: n}:
	default:
	}
}

// OnState queues a state change. It blocks while the buffer is full so no
// state is lost, and returns at once after Close.
func (e *Events) OnState(st session.State) {
	select {
	case e.ch <- StateChangedMsg{State: st}:
	case <-e.done:
	}
}

// Close releases blocked senders and ends Wait.
func (e *Events) Close() {
	e.once.Do(func() { close(e.done) })
}

// Wait returns a command that yields the next event, or nil after Close.
func (e *Events) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}
