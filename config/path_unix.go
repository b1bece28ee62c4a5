// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package config

func defaultDir() string {
	return "/etc/p2prd"
}
