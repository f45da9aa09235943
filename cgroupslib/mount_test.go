// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cgroupslib

import (
	"testing"

	"github.com/hashicorp/cgroupcore/idset"
	"github.com/shoenig/test/must"
)

func Test_parseCgroupOptions(t *testing.T) {
	enabled := idset.From[string]([]string{"cpu", "cpuacct", "memory", "freezer", "devices"})

	cases := []struct {
		name    string
		options string
		exp     []string
	}{
		{
			name:    "comounted",
			options: "rw,nosuid,nodev,noexec,relatime,cpu,cpuacct",
			exp:     []string{"cpu", "cpuacct"},
		},
		{
			name:    "single",
			options: "rw,relatime,memory",
			exp:     []string{"memory"},
		},
		{
			name:    "no cgroup controllers",
			options: "rw,nsdelegate",
			exp:     nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseCgroupOptions(tc.options, enabled)
			must.Eq(t, len(tc.exp), got.Size())
			for _, c := range tc.exp {
				must.True(t, got.Contains(c))
			}
		})
	}
}

func Test_findByControllers(t *testing.T) {
	hierarchies := []Hierarchy{
		{Root: "/sys/fs/cgroup/cpu,cpuacct", Controllers: idset.From[string]([]string{"cpu", "cpuacct"})},
		{Root: "/sys/fs/cgroup/memory", Controllers: idset.From[string]([]string{"memory"})},
	}

	idx := findByControllers(hierarchies, idset.From[string]([]string{"cpuacct"}))
	must.Eq(t, 0, idx)

	idx = findByControllers(hierarchies, idset.From[string]([]string{"freezer"}))
	must.Eq(t, -1, idx)
}

func Test_ForController(t *testing.T) {
	hierarchies := []Hierarchy{
		{Root: "/sys/fs/cgroup/memory", Controllers: idset.From[string]([]string{"memory"})},
	}

	h, ok := ForController(hierarchies, "memory")
	must.True(t, ok)
	must.Eq(t, "/sys/fs/cgroup/memory", h.Root)

	_, ok = ForController(hierarchies, "devices")
	must.False(t, ok)
}
