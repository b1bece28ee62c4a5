// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame encodes and decodes the frames data channel's binary
// envelope: a UTF-8 JSON header, a single 0x00 delimiter byte, and the
// raw payload. The delimiter is always the first zero byte in the
// message — JSON text never contains a literal NUL, so the header is
// unambiguous without a length prefix.
package frame
