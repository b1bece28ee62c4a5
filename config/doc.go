// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package config owns the host's single persisted JSON document: host
// identity, password hash, signaling resolver URL, ICE servers,
// logging rotation parameters, and lockout counters.
//
// [Store] is the single owner of the in-memory Config. All reads and
// writes serialize through one mutex — including the Lockout Engine's
// counters, which are persisted as part of the same document and
// therefore compose with the same lock rather than using one of their
// own. Every successful mutation closes and replaces a "generation"
// channel; callers that need to react to configuration changes
// (the resolver loop re-reading the signaling URL, WebRTC Core
// re-reading the ICE server list) call [Store.Subscribe] to receive a
// channel that closes on the next change, then re-subscribe.
//
// The config file is written atomically: marshaled, written to a
// temporary file in the same directory, fsynced, and renamed into
// place, with the parent directory fsynced afterward so the rename
// survives a crash between rename and directory-metadata flush. A
// half-written config file would corrupt the host's identity, so a
// naive os.WriteFile is not an option here.
//
// The config directory is access-restricted at the OS level (SYSTEM +
// Administrators only on Windows, 0700 on POSIX) rather than encrypted
// at rest — ICE TURN credentials and the password hash are sensitive
// but the ACL is the control, matching the threat model in the data
// model's ICE Configuration note.
package config
