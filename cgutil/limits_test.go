// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"context"
	"testing"

	"github.com/shoenig/test/must"
)

// recordingDriver implements Driver, recording every Set call's key in
// order; all other methods are unused by these tests.
type recordingDriver struct {
	calls []string
	fail  string // key that should error when set
}

func (r *recordingDriver) Init(context.Context) error { return nil }
func (r *recordingDriver) Create(context.Context, *ContainerCgroup) error { return nil }
func (r *recordingDriver) Enter(context.Context, *ContainerCgroup, int) error { return nil }
func (r *recordingDriver) Get(context.Context, *ContainerCgroup, string) (string, error) {
	return "", nil
}
func (r *recordingDriver) Set(_ context.Context, _ *ContainerCgroup, key, _ string) error {
	r.calls = append(r.calls, key)
	if key == r.fail {
		return ErrLimitFailed
	}
	return nil
}
func (r *recordingDriver) GetNrTasks(context.Context, *ContainerCgroup) (int, error) {
	return 0, nil
}
func (r *recordingDriver) Destroy(context.Context, *ContainerCgroup) (bool, error) {
	return true, nil
}
func (r *recordingDriver) Chown(context.Context, *ContainerCgroup, []IDMapEntry) error { return nil }
func (r *recordingDriver) MountCgroup(context.Context, string) error                   { return nil }

func Test_SetupLimits_orders_devices_last(t *testing.T) {
	settings := []CgroupSetting{
		{Key: "memory.limit_in_bytes", Value: "1048576"},
		{Key: "devices.deny", Value: "a"},
		{Key: "devices.allow", Value: "c 1:3 rwm"},
	}

	d := &recordingDriver{}
	cg := &ContainerCgroup{Name: "c1"}

	err := SetupLimits(context.Background(), d, cg, settings)
	must.NoError(t, err)
	must.Eq(t, []string{"memory.limit_in_bytes", "devices.deny", "devices.allow"}, d.calls)
}

func Test_SetupLimits_aborts_on_failure_keeps_prior_writes(t *testing.T) {
	settings := []CgroupSetting{
		{Key: "memory.limit_in_bytes", Value: "1048576"},
		{Key: "cpu.shares", Value: "512"},
		{Key: "devices.deny", Value: "a"},
	}

	d := &recordingDriver{fail: "cpu.shares"}
	cg := &ContainerCgroup{Name: "c1"}

	err := SetupLimits(context.Background(), d, cg, settings)
	must.ErrorIs(t, err, ErrLimitFailed)
	// memory.limit_in_bytes was already applied and stays; devices never ran
	must.Eq(t, []string{"memory.limit_in_bytes", "cpu.shares"}, d.calls)
}

func Test_SetupLimits_unknown_key(t *testing.T) {
	settings := []CgroupSetting{{Key: "noDot", Value: "x"}}
	d := &recordingDriver{}

	err := SetupLimits(context.Background(), d, &ContainerCgroup{Name: "c1"}, settings)
	must.ErrorIs(t, err, ErrUnknownKey)
	must.Len(t, 0, d.calls)
}
