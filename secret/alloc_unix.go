// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package secret

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// allocateProtected returns an anonymous mmap region of size bytes,
// locked into physical RAM and excluded from core dumps.
func allocateProtected(size int) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}

	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed: %w", err)
	}

	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		// Non-fatal on kernels without MADV_DONTDUMP: the secret is
		// still protected against swap.
		unix.Munlock(data)
		unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}

	return data, nil
}

func releaseProtected(data []byte) error {
	var firstError error
	if err := unix.Munlock(data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munlock failed: %w", err)
	}
	if err := unix.Munmap(data); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: munmap failed: %w", err)
	}
	return firstError
}
