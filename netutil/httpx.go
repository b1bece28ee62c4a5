// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities shared by
// the signaling client, resolver loop, and relay.
//
// HTTP response helpers (ReadResponse, DecodeResponse, ErrorBody)
// bound all response body reads at MaxResponseSize to prevent
// unbounded memory allocation from a misbehaving resolver endpoint.
//
// Connection error helpers (IsExpectedCloseError) classify errors that
// occur during normal WebSocket connection teardown.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize is the bound on resolver JSON response body reads:
// 1 MB. The resolver response is a short JSON document (a single url
// field); the bound exists only to stop a misbehaving or
// malicious endpoint from exhausting memory.
const MaxResponseSize int64 = 1 << 20

// ReadResponse reads an HTTP response body up to MaxResponseSize
// bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads an HTTP response body (up to MaxResponseSize
// bytes) and JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored — a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
