// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/p2prd/host/clock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeSessions struct {
	mu  sync.Mutex
	ids []uint32
}

func (f *fakeSessions) read() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ids) == 1 {
		return f.ids[0], nil
	}
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id, nil
}

func TestWatcher_EmitsOnlyOnChange(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	sessions := &fakeSessions{ids: []uint32{1, 1, 2, 2, 3}}

	var mu sync.Mutex
	var transitions []Transition
	w := New(discardLogger(), fake, func(tr Transition) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, tr)
	})
	var pollCount atomic.Int32
	w.read = func() (uint32, error) {
		id, err := sessions.read()
		pollCount.Add(1)
		return id, err
	}

	waitForPollCount := func(n int32) {
		deadline := time.After(2 * time.Second)
		for pollCount.Load() < n {
			select {
			case <-deadline:
				t.Fatalf("pollCount = %d, want %d", pollCount.Load(), n)
			case <-time.After(10 * time.Millisecond):
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Run's initial w.poll() call (outside the ticker loop) must have
	// completed before the first Advance, or the ticker's buffered
	// channel send below could be coalesced with it.
	waitForPollCount(1)

	fake.WaitForTimers(1)
	fake.Advance(pollInterval) // 1 -> 1: no transition
	waitForPollCount(2)
	fake.WaitForTimers(1)
	fake.Advance(pollInterval) // 1 -> 2: transition
	waitForPollCount(3)
	fake.WaitForTimers(1)
	fake.Advance(pollInterval) // 2 -> 2: no transition
	waitForPollCount(4)
	fake.WaitForTimers(1)
	fake.Advance(pollInterval) // 2 -> 3: transition
	waitForPollCount(5)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(transitions)
		mu.Unlock()
		if n >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("got %d transitions, want at least 2", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 {
		t.Fatalf("transitions = %+v, want exactly 2", transitions)
	}
	if transitions[0] != (Transition{PreviousSessionID: 1, CurrentSessionID: 2}) {
		t.Fatalf("transitions[0] = %+v", transitions[0])
	}
	if transitions[1] != (Transition{PreviousSessionID: 2, CurrentSessionID: 3}) {
		t.Fatalf("transitions[1] = %+v", transitions[1])
	}
}
