// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret provides a memory-safe buffer for sensitive data such
// as passwords, PINs, and derived key material.
//
// [Buffer] allocates memory outside the Go heap, locks it into physical
// RAM to prevent it from being written to swap, and (where the
// platform supports it) excludes it from core dumps. On Close the
// memory is zeroed, unlocked, and released. Because the memory lives
// outside the Go heap, the garbage collector never sees it and cannot
// copy or relocate it — the only way to guarantee secret material does
// not linger in memory after it is no longer needed.
//
// Constructors:
//
//   - [New] -- allocates a zero-filled buffer of a given size
//   - [NewFromBytes] -- copies into protected memory, zeros the source
//   - [ReadFromPath] -- reads a secret from a file or stdin ("-")
//
// Access via [Buffer.Bytes] (slice into the protected region) or
// [Buffer.String] (heap copy, for API boundaries that require a
// string). After Close, any access panics. Close is idempotent.
//
// On non-Windows platforms this is backed by mmap/mlock/madvise via
// golang.org/x/sys/unix. On Windows it is backed by VirtualAlloc and
// VirtualLock via golang.org/x/sys/windows; Windows has no direct
// equivalent of MADV_DONTDUMP, so a Windows crash dump configured to
// capture full process memory can still include this region — this is
// a documented platform limitation, not an oversight.
package secret
