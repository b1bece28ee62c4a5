// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package signaling maintains the host's outbound connection to the
// relay: [Client] owns at most one gorilla/websocket connection and
// dispatches each complete text frame to an injected handler, and
// [Resolver] periodically re-derives the relay's address and drives
// reconnects when it changes.
//
// Both loops accept a context.Context and return cleanly on
// cancellation rather than blocking indefinitely, matching the
// cancellation-token discipline the rest of this module uses for
// long-running work.
package signaling
