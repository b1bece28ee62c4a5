// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc implements the host's local configuration channel: a
// named, OS-ACL-restricted pipe carrying line-delimited JSON
// request/response pairs.
//
// On Windows this is a named pipe ("\\.\pipe\P2PRD.Config") whose
// security descriptor grants access only to SYSTEM and built-in
// Administrators. On other platforms (used for local development and
// the test suite) it is a Unix domain socket with owner-only
// permissions — the closest POSIX analogue of the same access
// restriction.
//
// [Server] dispatches each request line to a handler registered by
// request "type" field, mirroring the registered-action-handler
// pattern used elsewhere in this module's service scaffolding. Unlike
// a one-shot request/response socket, a Server connection is
// persistent: a client may send any number of request lines over one
// connection before closing it.
package ipc
