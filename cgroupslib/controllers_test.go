// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cgroupslib

import (
	"strings"
	"testing"

	"github.com/shoenig/test/must"
)

const procCgroups = `#subsys_name	hierarchy	num_cgroups	enabled
cpuset	4	1	1
cpu	2	71	1
cpuacct	2	71	1
memory	3	89	1
devices	7	71	1
freezer	8	1	0
`

func Test_parseProcCgroups(t *testing.T) {
	got, err := parseProcCgroups(strings.NewReader(procCgroups))
	must.NoError(t, err)

	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
		must.True(t, c.Enabled)
	}
	must.SliceContainsAll(t, []string{"cpuset", "cpu", "cpuacct", "memory", "devices"}, names)

	// freezer is disabled (fourth field 0), must not appear
	for _, n := range names {
		must.NotEq(t, "freezer", n)
	}
}

func Test_parseProcCgroups_empty(t *testing.T) {
	got, err := parseProcCgroups(strings.NewReader("#subsys_name\thierarchy\tnum_cgroups\tenabled\n"))
	must.NoError(t, err)
	must.Len(t, 0, got)
}

func Test_EnumerateControllers_missing(t *testing.T) {
	_, err := EnumerateControllers("/does/not/exist/cgroups")
	must.Error(t, err)
}
