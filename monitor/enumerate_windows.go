// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package monitor

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// enumerateDisplays queries connected display geometry via WMI,
// grounded on the reference agent's windowsDisplays helper. Win32_
// VideoController does not report virtual-desktop offsets, so Left
// and Top are left at zero and monitors are laid out left-to-right by
// enumeration order — acceptable for a single-operator remote-desktop
// host where exact virtual-desktop placement does not affect capture
// correctness, only the coordinate space input mapping uses.
func enumerateDisplays() ([]Descriptor, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		"Get-CimInstance Win32_VideoController | ForEach-Object { "+
			"\"$($_.Name)|$($_.CurrentHorizontalResolution)|$($_.CurrentVerticalResolution)\" }").Output()
	if err != nil {
		return nil, fmt.Errorf("monitor: querying Win32_VideoController: %w", err)
	}

	var (
		displays []Descriptor
		offsetX  int
		index    int
	)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		fields := strings.Split(strings.TrimSpace(line), "|")
		if len(fields) != 3 {
			continue
		}
		width, errW := strconv.Atoi(fields[1])
		height, errH := strconv.Atoi(fields[2])
		if errW != nil || errH != nil || width == 0 || height == 0 {
			continue
		}

		index++
		displays = append(displays, Descriptor{
			ID:   fmt.Sprintf("display-%d", index),
			Name: strings.TrimSpace(fields[0]),
			Bounds: Rectangle{
				Left:   offsetX,
				Top:    0,
				Width:  width,
				Height: height,
			},
			EffectiveDPIScale: dpiScale(),
		})
		offsetX += width
	}
	return displays, nil
}

// dpiScale reads the primary monitor's effective DPI scale via the
// shell's logical-to-physical ratio. A failure returns 1.0 rather
// than erroring the whole enumeration — an unscaled coordinate space
// is a safe, if imprecise, fallback.
func dpiScale() float64 {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		"(Get-CimInstance -Namespace root/cimv2 -ClassName Win32_DesktopMonitor | "+
			"Select-Object -First 1 -ExpandProperty PixelsPerXLogicalInch)").Output()
	if err != nil {
		return 1.0
	}
	dpi, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || dpi <= 0 {
		return 1.0
	}
	return dpi / 96.0
}
