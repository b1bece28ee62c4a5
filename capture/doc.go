// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture implements the host's per-frame screen acquisition,
// following the tiered contract capture(monitor_id) -> frame:
//
//  1. Enter the active input desktop for the call's duration (via
//     desktop.Switcher).
//  2. If a GPU desktop-duplication session exists for monitor_id,
//     acquire-next-frame with a short timeout.
//  3. Otherwise fall back to a screen-grab primitive over the
//     monitor's bounds.
//  4. If neither works, synthesize a placeholder frame carrying a UTC
//     timestamp, keeping the pipeline observably alive.
//
// Duplication sessions are lazily created once per monitor and
// poisoned on initialization failure. This module ships no duplicator:
// cmd/p2prd-host passes nil for the duplicator constructor, so every
// call runs the screen-grab tier. The interface lets a duplication
// binding be added without touching Pipeline or any caller.
package capture
