// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package watcher implements the Session-0 Watcher named in spec.md
// §2: a polling loop that notices when a different session takes over
// the active console and reports it as a Transition. The host uses
// this to know when the desktop it is capturing has changed out from
// under it, independent of any WebRTC or signaling state.
package watcher
