// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package monitor

// enumerateDisplays reports a single synthetic 1920x1080 display on
// non-Windows platforms. The host's production target is Windows;
// this fallback exists so the module builds, tests, and runs its
// capture/encode/session loops end-to-end in development.
func enumerateDisplays() ([]Descriptor, error) {
	return []Descriptor{
		{
			ID:   "display-1",
			Name: "Virtual Display",
			Bounds: Rectangle{
				Left:   0,
				Top:    0,
				Width:  1920,
				Height: 1080,
			},
			EffectiveDPIScale: 1.0,
		},
	}, nil
}
