// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Store is the single owner of the host's in-memory Config. All reads
// and mutations serialize through mu, including the Lockout Engine's
// counters — the lockout state lives inside Config and is persisted
// with everything else rather than behind a lock of its own.
type Store struct {
	path string

	mu         sync.Mutex
	current    Config
	generation chan struct{} // closed and replaced on every successful mutation
}

// Open loads path if it exists, or creates a fresh config with a newly
// generated host ID if it does not. The parent directory is created
// and access-restricted (SYSTEM + Administrators on Windows, 0700 on
// POSIX) before the first write.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("config: creating directory: %w", err)
	}
	if err := hardenDir(dir); err != nil {
		return nil, fmt.Errorf("config: hardening directory: %w", err)
	}

	store := &Store{
		path:       path,
		generation: make(chan struct{}),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var cfg Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		store.current = cfg
		return store, nil
	case os.IsNotExist(err):
		store.current = Config{
			HostID:  uuid.NewString(),
			Logging: defaultLogging(),
			STUN:    []string{"stun:stun.l.google.com:19302"},
		}
		if err := store.persist(store.current); err != nil {
			return nil, fmt.Errorf("config: writing initial config: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
}

// Snapshot returns a copy of the current configuration. Safe for
// concurrent use; the returned value is never mutated by the Store.
func (s *Store) Snapshot() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe returns a channel that is closed the next time the
// configuration changes. Callers re-subscribe after each close to
// keep receiving updates — this is a generation counter, not a
// message queue.
func (s *Store) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Mutate applies fn to a copy of the current configuration and
// persists the result atomically. fn's return value becomes the new
// current configuration. fn cannot abort the mutation: whatever it
// returns, the unmodified input included, is persisted and, on
// success, closes the current Subscribe channel.
func (s *Store) Mutate(fn func(Config) Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := fn(s.current)
	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next

	close(s.generation)
	s.generation = make(chan struct{})
	return nil
}

// persist must be called with mu held.
func (s *Store) persist(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := atomicWriteFile(s.path, data, 0600); err != nil {
		return err
	}
	return nil
}
