// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package encode

import (
	"fmt"
	"image"
)

// Encoder converts one captured frame into a VP8 bitstream frame.
// Implementations re-initialize internally when width/height change.
type Encoder interface {
	// Encode returns the VP8 bitstream for img and whether it is a
	// keyframe. frame is only valid until the next call to Encode.
	Encode(img image.Image) (frame []byte, keyframe bool, err error)
}

// StubEncoder emits a VP8 keyframe header for every call: a three-byte
// frame tag, the start code and img's 14-bit dimensions, ten bytes in
// all, with no partition data after them. See the package doc for why
// this is not a rate-distortion encoder.
type StubEncoder struct{}

// NewStubEncoder returns the shipped placeholder VP8 encoder.
func NewStubEncoder() *StubEncoder {
	return &StubEncoder{}
}

func (*StubEncoder) Encode(img image.Image) ([]byte, bool, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, false, fmt.Errorf("encode: frame has non-positive dimensions %dx%d", width, height)
	}
	if width > 0x3fff || height > 0x3fff {
		return nil, false, fmt.Errorf("encode: frame dimensions %dx%d exceed VP8's 14-bit limit", width, height)
	}

	frame := make([]byte, 10, 10+width*height/8)

	// Frame tag: 24 bits little-endian across 3 bytes. Bit 0 is the
	// frame-type flag (0 = keyframe); bits 1-3 the VP8 version; bit 4
	// show_frame; bits 5-23 the first partition size.
	firstPartitionSize := uint32(len(frame) - 3)
	tag := (firstPartitionSize << 5) | (1 << 4)
	frame[0] = byte(tag)
	frame[1] = byte(tag >> 8)
	frame[2] = byte(tag >> 16)

	// Start code, mandatory for keyframes.
	frame[3] = 0x9d
	frame[4] = 0x01
	frame[5] = 0x2a

	// Width/height, 14 bits each with a 2-bit horizontal/vertical scale
	// prefix (left at 0, no scaling).
	frame[6] = byte(width & 0xff)
	frame[7] = byte((width >> 8) & 0x3f)
	frame[8] = byte(height & 0xff)
	frame[9] = byte((height >> 8) & 0x3f)

	return frame, true, nil
}
