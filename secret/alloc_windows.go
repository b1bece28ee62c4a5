// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package secret

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// allocateProtected returns a VirtualAlloc'd region of size bytes,
// locked into physical RAM via VirtualLock. Windows has no direct
// equivalent of MADV_DONTDUMP; a full-memory crash dump can still
// capture this region.
func allocateProtected(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("secret: VirtualAlloc failed: %w", err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	if err := windows.VirtualLock(addr, uintptr(size)); err != nil {
		windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		return nil, fmt.Errorf("secret: VirtualLock failed: %w", err)
	}

	return data, nil
}

func releaseProtected(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))

	var firstError error
	if err := windows.VirtualUnlock(addr, uintptr(len(data))); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: VirtualUnlock failed: %w", err)
	}
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil && firstError == nil {
		firstError = fmt.Errorf("secret: VirtualFree failed: %w", err)
	}
	return firstError
}
