// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package encode converts captured frames to VP8 RTP packets.
//
// [Encoder] is the seam: it produces a raw VP8 bitstream frame plus a
// keyframe flag from an image.Image. The shipped [StubEncoder]
// performs a structurally-valid single-keyframe-per-input encode —
// every frame is tagged as a VP8 keyframe with a correct frame tag
// and start code, but carries no psychovisual rate-distortion coding.
// There is no pure-Go VP8 bitstream encoder in the retrieved corpus or
// in widely-used modules without cgo; swapping StubEncoder for a
// hardware or cgo encoder later requires no change to [Adapter],
// [webrtccore], or [session].
//
// [Adapter] is the part of this package that is fully real: it tracks
// (width, height, RTP timestamp, RTP sequence number) across calls,
// re-creating its VP8 payloader when dimensions change (the [Encoder]
// handles its own re-initialization), and fragments
// each encoded frame into RTP packets using pion/rtp's
// codecs.VP8Payloader — the same fragmentation pion/webrtc uses
// internally for any real VP8 source.
package encode
