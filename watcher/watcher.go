// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package watcher polls the operating system's active console session
// (a switch away from the console — fast user switching, lock screen
// handoff, RDP takeover — changes which session owns the physical
// display) and emits a Transition each time it changes.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/p2prd/host/clock"
)

// pollInterval bounds how quickly a console session change is
// noticed; spec.md's ambient concurrency model treats this loop the
// same as the frame loop and signaling pumps, so it is cheap enough
// to poll frequently.
const pollInterval = 2 * time.Second

// Transition describes a change in which session owns the active
// console.
type Transition struct {
	PreviousSessionID uint32
	CurrentSessionID  uint32
}

// consoleSessionID reads the platform's active console session id.
// Implemented per-platform; non-Windows builds return a fixed id and
// never observe a transition.
type consoleSessionID func() (uint32, error)

// Watcher polls consoleSessionID on an interval and reports each
// change to onTransition. Callers on non-Windows platforms may still
// run a Watcher — it simply never fires, matching the no-op pattern
// used by desktop.Switcher and input.Backend on those platforms.
type Watcher struct {
	logger       *slog.Logger
	clk          clock.Clock
	read         consoleSessionID
	onTransition func(Transition)

	lastSessionID uint32
	haveLast      bool
}

// New returns a Watcher that calls onTransition from Run's goroutine
// whenever the active console session changes.
func New(logger *slog.Logger, clk clock.Clock, onTransition func(Transition)) *Watcher {
	return &Watcher{
		logger:       logger,
		clk:          clk,
		read:         readActiveConsoleSessionID,
		onTransition: onTransition,
	}
}

// Run polls until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := w.clk.NewTicker(pollInterval)
	defer ticker.Stop()

	w.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	sessionID, err := w.read()
	if err != nil {
		w.logger.Warn("watcher: reading active console session failed", "error", err)
		return
	}

	if !w.haveLast {
		w.lastSessionID = sessionID
		w.haveLast = true
		return
	}

	if sessionID == w.lastSessionID {
		return
	}

	transition := Transition{PreviousSessionID: w.lastSessionID, CurrentSessionID: sessionID}
	w.lastSessionID = sessionID
	w.logger.Info("active console session changed", "previous", transition.PreviousSessionID, "current", transition.CurrentSessionID)
	if w.onTransition != nil {
		w.onTransition(transition)
	}
}
