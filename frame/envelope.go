// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Header describes the payload that follows the delimiter.
type Header struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Encode produces the envelope `<json header>0x00<payload>`.
func Encode(header Header, payload []byte) ([]byte, error) {
	encodedHeader, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("frame: marshaling header: %w", err)
	}
	if bytes.IndexByte(encodedHeader, 0x00) != -1 {
		return nil, fmt.Errorf("frame: encoded header unexpectedly contains a NUL byte")
	}

	envelope := make([]byte, 0, len(encodedHeader)+1+len(payload))
	envelope = append(envelope, encodedHeader...)
	envelope = append(envelope, 0x00)
	envelope = append(envelope, payload...)
	return envelope, nil
}

// Decode splits an envelope at its first 0x00 byte and parses the
// header preceding it.
func Decode(envelope []byte) (Header, []byte, error) {
	delimiter := bytes.IndexByte(envelope, 0x00)
	if delimiter == -1 {
		return Header{}, nil, fmt.Errorf("frame: no delimiter byte found in envelope")
	}

	var header Header
	if err := json.Unmarshal(envelope[:delimiter], &header); err != nil {
		return Header{}, nil, fmt.Errorf("frame: parsing header: %w", err)
	}

	payload := envelope[delimiter+1:]
	return header, payload, nil
}
