// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"testing"

	"github.com/shoenig/test/must"
)

func Test_ContainerCgroup_ExpandedBase(t *testing.T) {
	cases := []struct {
		name    string
		cg      ContainerCgroup
		exp     string
	}{
		{
			name: "default pattern",
			cg:   ContainerCgroup{Name: "c1"},
			exp:  "c1",
		},
		{
			name: "custom pattern",
			cg:   ContainerCgroup{Name: "c1", Pattern: "containers/%n"},
			exp:  "containers/c1",
		},
		{
			name: "strips leading slash",
			cg:   ContainerCgroup{Name: "c1", Pattern: "/%n"},
			exp:  "c1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			must.Eq(t, tc.exp, tc.cg.ExpandedBase())
		})
	}
}

func Test_CgroupSetting_Controller(t *testing.T) {
	cases := []struct {
		key string
		exp string
	}{
		{key: "memory.limit_in_bytes", exp: "memory"},
		{key: "devices.allow", exp: "devices"},
		{key: "noDot", exp: ""},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			must.Eq(t, tc.exp, CgroupSetting{Key: tc.key}.Controller())
		})
	}
}

func Test_CgroupSetting_IsDevices(t *testing.T) {
	must.True(t, CgroupSetting{Key: "devices.deny"}.IsDevices())
	must.False(t, CgroupSetting{Key: "memory.limit_in_bytes"}.IsDevices())
}
