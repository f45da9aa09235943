// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

// Package testutil provides cgroup-v1-availability skip helpers and an
// in-process fake daemon for exercising the Daemon Driver without a
// real privileged cgmanager process.
package testutil

import (
	"os"
	"testing"

	"github.com/hashicorp/cgroupcore/cgroupslib"
)

// CgroupsCompatibleV1 skips t unless the host has at least one mounted
// cgroup v1 hierarchy and the test is running as root (directory
// creation under the real hierarchy requires it).
func CgroupsCompatibleV1(t *testing.T) {
	t.Helper()

	if os.Geteuid() != 0 {
		t.Skip("test requires root")
	}

	controllers, err := cgroupslib.EnumerateControllers("/proc/cgroups")
	if err != nil || len(controllers) == 0 {
		t.Skip("test requires cgroup v1 controllers")
	}

	hierarchies, err := cgroupslib.EnumerateHierarchies(controllers)
	if err != nil || len(hierarchies) == 0 {
		t.Skip("test requires a mounted cgroup v1 hierarchy")
	}
}
