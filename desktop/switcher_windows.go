// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package desktop

import (
	"fmt"
	"syscall"
)

var (
	user32            = syscall.NewLazyDLL("user32.dll")
	procOpenInputDesk = user32.NewProc("OpenInputDesktop")
	procSetThreadDesk = user32.NewProc("SetThreadDesktop")
	procGetThreadDesk = user32.NewProc("GetThreadDesktop")
	procCloseDesktop  = user32.NewProc("CloseDesktop")
)

const desktopSwitchDesktop = 0x0100 // DESKTOP_SWITCHDESKTOP, required to SetThreadDesktop successfully

// windowsSwitcher attaches the calling goroutine's OS thread to the
// currently active input desktop — the one receiving the logon
// screen, UAC consent prompt, or the interactive user's own session —
// so capture and input injection act on whatever the user is actually
// looking at, not whichever desktop the host process happened to
// start on.
type windowsSwitcher struct{}

// New returns the Windows input-desktop switcher.
func New() Switcher {
	return windowsSwitcher{}
}

func (windowsSwitcher) Enter() (func(), error) {
	previous, _, _ := procGetThreadDesk.Call()
	if previous == 0 {
		return nil, fmt.Errorf("desktop: GetThreadDesktop failed: %w", syscall.GetLastError())
	}

	input, _, _ := procOpenInputDesk.Call(0, 0, desktopSwitchDesktop)
	if input == 0 {
		return nil, fmt.Errorf("desktop: OpenInputDesktop failed: %w", syscall.GetLastError())
	}

	ok, _, _ := procSetThreadDesk.Call(input)
	if ok == 0 {
		procCloseDesktop.Call(input)
		return nil, fmt.Errorf("desktop: SetThreadDesktop failed: %w", syscall.GetLastError())
	}

	restore := func() {
		procSetThreadDesk.Call(previous)
		procCloseDesktop.Call(input)
	}
	return restore, nil
}
