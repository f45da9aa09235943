// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import "context"

// FreezerThawed is the value lxc's cgmanager writes to freezer.state
// to resume a frozen container.
const FreezerThawed = "THAWED"

// Unfreeze resolves name's cgroup via lookup and writes FreezerThawed
// to its freezer.state.
func Unfreeze(ctx context.Context, driver Driver, lookup MonitorLookup, name string) error {
	cg, err := lookup(name)
	if err != nil {
		return err
	}
	return driver.Set(ctx, cg, "freezer.state", FreezerThawed)
}

// Attach resolves name's existing cgroup (the planner's invariant
// guarantees the same relative path was chosen in every
// hierarchy/controller, so there is exactly one path to re-resolve,
// the same guarantee cgmanager's own cgm_attach relies on) and enters
// pid into it.
func Attach(ctx context.Context, driver Driver, lookup MonitorLookup, name string, pid int) error {
	cg, err := lookup(name)
	if err != nil {
		return err
	}
	return driver.Enter(ctx, cg, pid)
}
