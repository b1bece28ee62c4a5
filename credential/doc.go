// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential hashes and verifies the host's operator
// password. Hashes are self-describing: the KDF family and its
// parameters are embedded in the stored string, so Verify never needs
// to be told which algorithm produced a given hash and old hashes
// keep verifying after the default family changes.
//
// Two families are supported, both named in the data model's Password
// Credential note: argon2id (the default for newly hashed passwords)
// and bcrypt (recognized on verify, for hashes carried over from an
// external provisioning step). Plaintext passwords are never
// persisted — only Hash's output is written to the config document.
package credential
