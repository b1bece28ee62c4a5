// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"image"
)

const (
	syntheticWidth  = 1280
	syntheticHeight = 720
)

// synthesize generates a placeholder frame: a gradient background
// with a clock-driven moving dot, so a frozen pipeline is visibly
// distinguishable from a live one even when no real capture primitive
// is working.
func (p *Pipeline) synthesize() Frame {
	now := p.clock.Now().UTC()

	img := image.NewNRGBA(image.Rect(0, 0, syntheticWidth, syntheticHeight))
	pix := img.Pix
	stride := img.Stride

	for y := 0; y < syntheticHeight; y++ {
		g := uint8(40 + (y * 120 / syntheticHeight))
		row := y * stride
		for x := 0; x < syntheticWidth; x++ {
			i := row + x*4
			pix[i+0] = uint8(40 + (x * 120 / syntheticWidth))
			pix[i+1] = g
			pix[i+2] = 90
			pix[i+3] = 255
		}
	}

	seconds := now.Second()
	cx := (seconds * syntheticWidth) / 60
	cy := syntheticHeight / 2
	for dy := -6; dy <= 6; dy++ {
		for dx := -6; dx <= 6; dx++ {
			if dx*dx+dy*dy > 36 {
				continue
			}
			px, py := cx+dx, cy+dy
			if px < 0 || px >= syntheticWidth || py < 0 || py >= syntheticHeight {
				continue
			}
			i := py*stride + px*4
			pix[i+0], pix[i+1], pix[i+2], pix[i+3] = 220, 80, 80, 255
		}
	}

	return Frame{Image: img, CapturedAt: now, Synthetic: true}
}
