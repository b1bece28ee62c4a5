// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package desktop provides a scoped guard for switching the calling
// thread onto the active input desktop — the desktop receiving UAC
// prompts, the logon screen, or the user's own session — for the
// duration of a capture or input-injection call.
//
// Enter returns a restore function rather than taking a closure, so
// that callers write:
//
//	restore, err := switcher.Enter()
//	if err != nil {
//		return err
//	}
//	defer restore()
//
// placing the defer immediately after a successful Enter means a
// panic inside the capture/input call still restores the previous
// desktop, since Go's defer runs on panic unwind (it does not run on
// os.Exit or process abort, a platform limit no userspace code can
// close).
package desktop
