// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package input injects mouse and keyboard events onto the active
// input desktop, mapping normalized operator coordinates to physical
// pixels per monitor bounds and DPI scale.
//
// [Backend] is the capability trait named in Design Note §9
// (InputBackend): production wiring on Windows drives SendInput
// directly via user32.dll, the same direct-DLL-binding technique
// desktop.Switcher uses for OpenInputDesktop/SetThreadDesktop, because
// golang.org/x/sys/windows does not wrap SendInput. Non-Windows builds
// get a no-op backend that logs at debug level, matching the
// reference agent's per-OS dispatch in cmd/agent/input.go.
package input
