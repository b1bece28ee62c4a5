// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package capture

import (
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/p2prd/host/monitor"
)

// shellBackend implements tier 3 by shelling out to the platform's
// screenshot utility, adapted from the reference agent's
// captureScreenMacOS/captureScreenLinux dispatch. The production
// target for this host is Windows; this backend exists so the
// capture pipeline is exercisable end to end in development.
type shellBackend struct{}

// NewBackend returns the dev-platform shell-based screen-grab backend.
func NewBackend() Backend {
	return shellBackend{}
}

func (shellBackend) Grab(bounds monitor.Rectangle) (Frame, error) {
	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("p2prd-capture-%d.png", time.Now().UnixNano()))
	defer os.Remove(tempPath)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		region := fmt.Sprintf("%d,%d,%d,%d", bounds.Left, bounds.Top, bounds.Width, bounds.Height)
		cmd = exec.Command("screencapture", "-x", "-t", "png", "-R", region, tempPath)
	case "linux":
		geometry := fmt.Sprintf("%dx%d+%d+%d", bounds.Width, bounds.Height, bounds.Left, bounds.Top)
		cmd = exec.Command("import", "-window", "root", "-crop", geometry, tempPath)
	default:
		return Frame{}, fmt.Errorf("capture: no screen-grab primitive for %s", runtime.GOOS)
	}

	if err := cmd.Run(); err != nil {
		return Frame{}, fmt.Errorf("capture: running %s: %w", cmd.Path, err)
	}

	file, err := os.Open(tempPath)
	if err != nil {
		return Frame{}, fmt.Errorf("capture: opening screen-grab output: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return Frame{}, fmt.Errorf("capture: decoding screen-grab output: %w", err)
	}

	return Frame{Image: img, CapturedAt: time.Now().UTC()}, nil
}
