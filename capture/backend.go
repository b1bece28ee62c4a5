// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"github.com/p2prd/host/monitor"
)

// Backend is tier 3: a screen-grab primitive covering a monitor's
// bounds. Production wiring supplies a platform-specific
// implementation; tests supply a fake.
type Backend interface {
	Grab(bounds monitor.Rectangle) (Frame, error)
}

// Duplicator is tier 2: a GPU desktop-duplication session for one
// monitor. AcquireNextFrame blocks up to timeout waiting for a new
// frame; ok is false on timeout. Pipeline answers a timeout with the
// previous good frame for that monitor or, when there is none, falls
// through to the screen-grab tier for that call only; a hard error
// poisons the duplication path.
type Duplicator interface {
	AcquireNextFrame(timeoutMillis int) (frame Frame, ok bool, err error)
	Close()
}

// NewDuplicator constructs a duplication session for bounds. Returns
// an error if duplication cannot be initialized for this monitor;
// Pipeline poisons the DXGI path for that monitor on any such error
// until an explicit Reset.
type DuplicatorFactory func(bounds monitor.Rectangle) (Duplicator, error)
