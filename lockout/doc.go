// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockout implements the host's brute-force protection: after
// MaxAttempts consecutive authentication failures, further attempts
// are refused for [Window] regardless of whether the password
// presented is correct.
//
// Engine has no lock of its own. Every operation composes a read of
// the current counters with a [config.Store.Mutate] call, so the
// counters are always updated and persisted atomically with the rest
// of the config document — there is no window where the in-memory
// counters and the on-disk counters disagree.
package lockout
