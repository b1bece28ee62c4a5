// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"sync"
	"time"

	"github.com/p2prd/host/clock"
)

// rateLimit and rateWindow bound accepts per remote IP, per spec.md
// §4.8 and §5 ("per-key counter under a per-entry lock").
const (
	rateLimit  = 10
	rateWindow = time.Second
)

// rateLimiter tracks accept timestamps per key in a sliding window.
// Distinct keys never contend: each key's history is guarded by its
// own lock, not a global one.
type rateLimiter struct {
	clk clock.Clock

	mu      sync.Mutex
	entries map[string]*rateEntry
}

type rateEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

func newRateLimiter(clk clock.Clock) *rateLimiter {
	return &rateLimiter{clk: clk, entries: make(map[string]*rateEntry)}
}

// Allow reports whether one more accept under key is permitted right
// now, recording it if so. A key's timestamps older than rateWindow
// are pruned on each of its own calls; entries are never removed from
// the map, and an idle key keeps its last timestamps until it calls
// again.
func (r *rateLimiter) Allow(key string) bool {
	entry := r.entryFor(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.clk.Now()
	cutoff := now.Add(-rateWindow)

	kept := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.timestamps = kept

	if len(entry.timestamps) >= rateLimit {
		return false
	}
	entry.timestamps = append(entry.timestamps, now)
	return true
}

func (r *rateLimiter) entryFor(key string) *rateEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		entry = &rateEntry{}
		r.entries[key] = entry
	}
	return entry
}
