// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package session implements the host's top-level state machine: it
// owns the single operator lease, authenticates against the Lockout
// Engine and stored credential hash, drives the Monitor Registry and
// Input Injector, and selects between the WebRTC control channel and
// the signaling WebSocket for outbound messages.
//
// Orchestrator has no network or WebRTC code of its own — it is
// driven entirely through on_signaling_message, on_control_channel_message,
// on_ice_state_change, on_channel_open, and on_channel_close, and it
// issues outbound traffic through the small SendSignaling/Connection
// seams injected at construction. This keeps the state machine
// testable without a real relay or a real WebRTC stack, following the
// same capability-trait approach the capture, input, and desktop
// packages use for their OS primitives.
package session
