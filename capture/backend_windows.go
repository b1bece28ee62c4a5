// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package capture

import (
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/p2prd/host/monitor"
)

// gdiBackend implements tier 3 via GDI's BitBlt, driven through
// PowerShell's System.Drawing bindings the way the reference agent's
// captureScreenWindows does, adapted to crop to an arbitrary
// monitor's bounds instead of always grabbing the primary screen and
// to decode into an in-process image.Image instead of leaving a JPEG
// on disk.
type gdiBackend struct{}

// NewBackend returns the Windows GDI screen-grab backend.
func NewBackend() Backend {
	return gdiBackend{}
}

func (gdiBackend) Grab(bounds monitor.Rectangle) (Frame, error) {
	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("p2prd-capture-%d.png", time.Now().UnixNano()))
	defer os.Remove(tempPath)

	script := fmt.Sprintf(`
Add-Type -AssemblyName System.Windows.Forms
Add-Type -AssemblyName System.Drawing
$bitmap = New-Object System.Drawing.Bitmap(%d, %d)
$graphics = [System.Drawing.Graphics]::FromImage($bitmap)
$graphics.CopyFromScreen(%d, %d, 0, 0, New-Object System.Drawing.Size(%d, %d))
$bitmap.Save('%s', [System.Drawing.Imaging.ImageFormat]::Png)
$graphics.Dispose()
$bitmap.Dispose()
`, bounds.Width, bounds.Height, bounds.Left, bounds.Top, bounds.Width, bounds.Height, tempPath)

	if err := exec.Command("powershell", "-NoProfile", "-Command", script).Run(); err != nil {
		return Frame{}, fmt.Errorf("capture: running screen-grab script: %w", err)
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
