// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package watcher

import "golang.org/x/sys/windows"

// readActiveConsoleSessionID wraps WTSGetActiveConsoleSessionId, which
// returns 0xFFFFFFFF when no session is attached to the console (e.g.
// a locked or momentarily switching desktop).
func readActiveConsoleSessionID() (uint32, error) {
	return windows.WTSGetActiveConsoleSessionId(), nil
}
