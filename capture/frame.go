// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"image"
	"time"
)

// Frame is one captured (or synthesized) still image plus the metadata
// the encode pipeline needs.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
	// Synthetic is true when no real capture primitive produced this
	// frame — a placeholder generated by tier 4.
	Synthetic bool
}
