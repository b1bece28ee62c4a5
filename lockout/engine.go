// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package lockout

import (
	"time"

	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/config"
)

// MaxAttempts is the number of consecutive authentication failures
// that trigger a lockout.
const MaxAttempts = 5

// Window is how long a lockout lasts once triggered.
const Window = 5 * time.Minute

// Engine decides whether authentication attempts are currently
// refused and records the outcome of each attempt. It has no state of
// its own — the counters live in the Config Store's LockoutState and
// every method reads and writes through store.Mutate.
type Engine struct {
	store *config.Store
	clock clock.Clock
}

// New returns an Engine backed by store. clk provides the current
// time; production callers pass clock.Real(), tests pass clock.Fake().
func New(store *config.Store, clk clock.Clock) *Engine {
	return &Engine{store: store, clock: clk}
}

// IsLocked reports whether authentication is currently refused. If a
// previously recorded lockout has expired, IsLocked clears it as a
// side effect (self-healing) and returns false.
//
// RetryAfter is the remaining lockout duration, zero when not locked.
func (e *Engine) IsLocked() (locked bool, retryAfter time.Duration) {
	now := e.clock.Now()
	snapshot := e.store.Snapshot()

	lockedUntil := snapshot.Lockout.LockedUntil
	if lockedUntil == nil {
		return false, 0
	}
	if !now.Before(*lockedUntil) {
		// Expired: clear it now rather than waiting for the next
		// failure or success to notice.
		_ = e.store.Mutate(func(cfg config.Config) config.Config {
			cfg.Lockout = config.LockoutState{}
			return cfg
		})
		return false, 0
	}
	return true, lockedUntil.Sub(now)
}

// RegisterFailure records one authentication failure. On the
// MaxAttempts-th consecutive failure it sets LockedUntil to
// now+Window and resets FailedAttempts to zero, per the invariant
// that FailedAttempts < MaxAttempts after every persist.
func (e *Engine) RegisterFailure() error {
	now := e.clock.Now()
	return e.store.Mutate(func(cfg config.Config) config.Config {
		attempts := cfg.Lockout.FailedAttempts + 1
		if attempts >= MaxAttempts {
			until := now.Add(Window)
			cfg.Lockout = config.LockoutState{LockedUntil: &until}
			return cfg
		}
		cfg.Lockout = config.LockoutState{FailedAttempts: attempts}
		return cfg
	})
}

// RegisterSuccess clears any failure count and lockout.
func (e *Engine) RegisterSuccess() error {
	return e.store.Mutate(func(cfg config.Config) config.Config {
		cfg.Lockout = config.LockoutState{}
		return cfg
	})
}
