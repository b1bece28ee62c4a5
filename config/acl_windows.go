// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package config

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// aclSecurityDescriptor grants full access to SYSTEM and built-in
// Administrators only, matching the external interfaces section's
// "ACL: SYSTEM + Administrators full, others none" requirement. Same
// SDDL shape as the IPC pipe's security descriptor, since both guard
// the same secret material (password hash, TURN credentials).
const aclSecurityDescriptor = "D:P(A;OICI;FA;;;SY)(A;OICI;FA;;;BA)"

// hardenDir applies the restrictive security descriptor to the config
// directory so it propagates to files created within it.
func hardenDir(path string) error {
	sd, err := windows.SecurityDescriptorFromString(aclSecurityDescriptor)
	if err != nil {
		return fmt.Errorf("config: parsing security descriptor: %w", err)
	}

	dacl, _, err := sd.DACL()
	if err != nil {
		return fmt.Errorf("config: reading DACL: %w", err)
	}

	if err := windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION,
		nil, nil, dacl, nil,
	); err != nil {
		return fmt.Errorf("config: applying directory ACL: %w", err)
	}
	return nil
}
