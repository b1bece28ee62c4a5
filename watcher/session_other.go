// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package watcher

// readActiveConsoleSessionID has no equivalent outside Windows'
// per-session console model; it reports a fixed id so Watcher never
// fires a spurious transition.
func readActiveConsoleSessionID() (uint32, error) {
	return 0, nil
}
