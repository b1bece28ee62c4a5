// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import "time"

// Config is the host's full persisted document.
type Config struct {
	HostID               string        `json:"host_id"`
	PasswordHash         string        `json:"password_hash"`
	SignalingResolverURL string        `json:"signaling_resolver_url"`
	STUN                 []string      `json:"stun"`
	TURN                 TURNConfig    `json:"turn"`
	Logging              LoggingConfig `json:"logging"`
	Lockout              LockoutState  `json:"lockout"`
}

// TURNConfig names a single TURN relay. An empty URL means no TURN
// server is configured.
type TURNConfig struct {
	URL        string `json:"url"`
	Username   string `json:"username"`
	Credential string `json:"credential"`
}

// LoggingConfig bounds the host's log file rotation.
type LoggingConfig struct {
	MaxBytes int `json:"max_bytes"`
	Files    int `json:"files"`
}

// LockoutState is the Lockout Engine's persisted counters. Invariant:
// FailedAttempts < MaxAttempts after every persist; LockedUntil is nil
// unless the engine just recorded the MaxAttempts-th consecutive
// failure.
type LockoutState struct {
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until"`
}

// defaultLogging matches the wire example in the external interfaces:
// 10 MiB per file, 5 files retained.
func defaultLogging() LoggingConfig {
	return LoggingConfig{MaxBytes: 10 * 1024 * 1024, Files: 5}
}
