// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package encode

import (
	"fmt"
	"image"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// ClockRate is the RTP clock rate for VP8, in Hz.
const ClockRate = 90000

// FrameRate is the target capture/encode rate in frames per second.
const FrameRate = 30

// TimestampIncrement is the RTP timestamp step per frame at FrameRate
// against ClockRate: 90000 / 30 = 3000.
const TimestampIncrement = ClockRate / FrameRate

// MTU bounds the payload size of each fragment, matching the
// conservative default pion/webrtc itself uses for VP8 tracks.
const MTU = 1200

// payloadType is the dynamic RTP payload type this host advertises
// for VP8 in its SDP, matching the value webrtccore's media section
// negotiates.
const payloadType = 96

// Adapter tracks (encoder, last width, last height, RTP timestamp,
// RTP sequence) across calls, per spec.md §4.4. It re-initializes
// whenever the frame dimensions change and fragments every encoded
// frame into RTP packets.
type Adapter struct {
	encoder Encoder
	ssrc    uint32

	lastWidth  int
	lastHeight int
	payloader  *codecs.VP8Payloader
	sequence   uint16
	timestamp  uint32
}

// NewAdapter returns an Adapter that encodes with enc and stamps
// outgoing packets with ssrc (the video track's SSRC, or a random
// value when the track has not yet negotiated one).
func NewAdapter(enc Encoder, ssrc uint32) *Adapter {
	return &Adapter{
		encoder: enc,
		ssrc:    ssrc,
	}
}

// EncodeFrame encodes img and fragments the result into RTP packets
// ready to write to a video track, along with whether the underlying
// encode was a keyframe. The timestamp on every packet in the
// returned slice is the same; the marker bit on every fragment is set
// to whether the encode was a keyframe, per spec.md §4.4 — not the
// ordinary RTP last-fragment convention.
func (a *Adapter) EncodeFrame(img image.Image) ([]*rtp.Packet, bool, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width != a.lastWidth || height != a.lastHeight {
		a.payloader = &codecs.VP8Payloader{}
		a.lastWidth = width
		a.lastHeight = height
	}

	vp8Frame, keyframe, err := a.encoder.Encode(img)
	if err != nil {
		return nil, false, fmt.Errorf("encode: encoding frame: %w", err)
	}

	fragments := a.payloader.Payload(MTU, vp8Frame)
	if len(fragments) == 0 {
		return nil, false, fmt.Errorf("encode: payloader produced no fragments for a %d-byte frame", len(vp8Frame))
	}

	packets := make([]*rtp.Packet, len(fragments))
	for i, fragment := range fragments {
		a.sequence++
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         keyframe,
				PayloadType:    payloadType,
				SequenceNumber: a.sequence,
				Timestamp:      a.timestamp,
				SSRC:           a.ssrc,
			},
			Payload: fragment,
		}
	}

	a.timestamp += TimestampIncrement
	return packets, keyframe, nil
}
