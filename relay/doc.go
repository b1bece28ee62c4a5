// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay implements the signaling server named in spec.md §4.8:
// a single /ws WebSocket endpoint pairing one host connection with any
// number of operator connections under a shared host id, plus a
// per-remote-IP accept rate limiter and a /health probe.
//
// The relay does not interpret the messages it forwards — it is pure
// transport. Single-operator enforcement ("host busy") is the Session
// Orchestrator's responsibility, not the relay's; the relay happily
// pairs a second operator connection under the same host id and lets
// the host reject it over the wire.
package relay
