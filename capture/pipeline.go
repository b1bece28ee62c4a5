// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/desktop"
	"github.com/p2prd/host/monitor"
)

const acquireTimeoutMillis = 10

// duplicationState tracks one monitor's lazily-initialized GPU
// duplication session, including whether it is poisoned.
type duplicationState struct {
	session  Duplicator
	poisoned bool
	lastGood *Frame
}

// Pipeline implements the capture(monitor_id) -> frame contract.
type Pipeline struct {
	registry *monitor.Registry
	switcher desktop.Switcher
	backend  Backend
	newDup   DuplicatorFactory
	clock    clock.Clock
	logger   *slog.Logger

	mu   sync.Mutex
	dups map[string]*duplicationState
}

// New builds a Pipeline. newDup may be nil, in which case tier 2 is
// skipped entirely and every call goes straight to the screen-grab
// backend.
func New(registry *monitor.Registry, switcher desktop.Switcher, backend Backend, newDup DuplicatorFactory, clk clock.Clock, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		switcher: switcher,
		backend:  backend,
		newDup:   newDup,
		clock:    clk,
		logger:   logger,
		dups:     make(map[string]*duplicationState),
	}
}

// Capture acquires one frame for monitorID, falling back to the
// primary monitor if monitorID is unknown, per spec.md §4.3.
func (p *Pipeline) Capture(monitorID string) (Frame, error) {
	restore, err := p.switcher.Enter()
	if err != nil {
		return Frame{}, fmt.Errorf("capture: entering input desktop: %w", err)
	}
	defer restore()

	bounds, _ := p.registry.Bounds(monitorID)

	if frame, ok := p.tryDuplication(monitorID, bounds); ok {
		return frame, nil
	}

	if p.backend != nil {
		if frame, err := p.backend.Grab(bounds); err == nil {
			return frame, nil
		} else {
			p.logger.Debug("screen-grab fallback failed", "monitor_id", monitorID, "error", err)
		}
	}

	return p.synthesize(), nil
}

// tryDuplication runs tier 2. It returns ok=false whenever the caller
// should fall through to the screen-grab tier — on a poisoned or
// absent session, on a hard AcquireNextFrame error, or (with no
// previously good frame to return) on a timeout.
func (p *Pipeline) tryDuplication(monitorID string, bounds monitor.Rectangle) (Frame, bool) {
	if p.newDup == nil {
		return Frame{}, false
	}

	p.mu.Lock()
	state, exists := p.dups[monitorID]
	if !exists {
		state = &duplicationState{}
		p.dups[monitorID] = state
	}
	if state.poisoned {
		p.mu.Unlock()
		return Frame{}, false
	}
	if state.session == nil {
		session, err := p.newDup(bounds)
		if err != nil {
			state.poisoned = true
			p.mu.Unlock()
			p.logger.Warn("duplication session init failed, poisoning DXGI path", "monitor_id", monitorID, "error", err)
			return Frame{}, false
		}
		state.session = session
	}
	session := state.session
	p.mu.Unlock()

	frame, ok, err := session.AcquireNextFrame(acquireTimeoutMillis)
	if err != nil {
		p.mu.Lock()
		state.poisoned = true
		state.session.Close()
		state.session = nil
		p.mu.Unlock()
		p.logger.Warn("duplication acquire failed, poisoning DXGI path", "monitor_id", monitorID, "error", err)
		return Frame{}, false
	}
	if !ok {
		// Timeout: return the previous frame if we have one, else fall
		// through to the screen-grab tier for this call only.
		p.mu.Lock()
		last := state.lastGood
		p.mu.Unlock()
		if last != nil {
			return *last, true
		}
		return Frame{}, false
	}

	p.mu.Lock()
	state.lastGood = &frame
	p.mu.Unlock()
	return frame, true
}

// Reset clears the poisoned state for monitorID (or all monitors if
// monitorID is empty), allowing duplication initialization to be
// retried. Per spec.md §4.3, poisoning is only cleared explicitly.
func (p *Pipeline) Reset(monitorID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if monitorID == "" {
		for id, state := range p.dups {
			if state.session != nil {
				state.session.Close()
			}
			delete(p.dups, id)
		}
		return
	}
	if state, ok := p.dups[monitorID]; ok {
		if state.session != nil {
			state.session.Close()
		}
		delete(p.dups, monitorID)
	}
}
