// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package monitor enumerates the displays attached to the active
// session and tracks which one the operator is currently driving.
//
// Descriptor.ID is stable only within a process lifetime — it is
// regenerated from scratch on every Refresh, so callers must not
// persist it across a host restart. Enumeration is platform-specific
// (WMI via PowerShell on Windows, a single-display fallback
// elsewhere) behind the Registry type so session and capture code
// never branch on GOOS directly.
package monitor
