// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cgroupslib

import (
	"strings"

	"github.com/hashicorp/cgroupcore/idset"
	"github.com/moby/sys/mountinfo"
)

// Hierarchy is a mounted cgroup v1 tree: a mount directory and the set
// of controllers co-mounted on it. Only the Fs Driver deals in
// hierarchies; the Daemon Driver talks to the daemon in terms of
// controller names alone and never sees a mount point.
type Hierarchy struct {
	Root        string
	Controllers *idset.Set[string]
}

// EnumerateHierarchies reads the process mount table and returns one
// Hierarchy per distinct co-mounted controller set, intersected against
// the kernel's enabled controllers. Multiple mounts that cover the
// same controller set (e.g. bind mounts) collapse to a single entry;
// dedup is keyed on the controller set, not the mount directory, per
// the Subsystem Registry's invariant that a controller belongs to
// exactly one hierarchy.
func EnumerateHierarchies(enabled []Controller) ([]Hierarchy, error) {
	enabledNames := idset.Empty[string]()
	for _, c := range enabled {
		enabledNames.Insert(c.Name)
	}

	mounts, err := mountinfo.GetMounts(cgroupFSFilter)
	if err != nil {
		return nil, err
	}

	var hierarchies []Hierarchy
	for _, m := range mounts {
		controllers := parseCgroupOptions(m.VFSOptions, enabledNames)
		if controllers.IsEmpty() {
			continue
		}

		if idx := findByControllers(hierarchies, controllers); idx >= 0 {
			continue
		}

		hierarchies = append(hierarchies, Hierarchy{
			Root:        m.Mountpoint,
			Controllers: controllers,
		})
	}

	return hierarchies, nil
}

// cgroupFSFilter keeps only cgroup v1 mount-table rows, skipping the
// unified cgroup2 mount and everything else.
func cgroupFSFilter(m *mountinfo.Info) (skip, stop bool) {
	return m.FSType != "cgroup", false
}

// parseCgroupOptions parses a cgroup mount's comma-separated options
// column and keeps only the tokens that name an enabled controller
// (the column also carries generic flags like "rw" and "relatime").
func parseCgroupOptions(options string, enabled *idset.Set[string]) *idset.Set[string] {
	out := idset.Empty[string]()
	for _, opt := range strings.Split(options, ",") {
		if enabled.Contains(opt) {
			out.Insert(opt)
		}
	}
	return out
}

// findByControllers returns the index of the first hierarchy whose
// controller set intersects controllers, or -1 if none does.
func findByControllers(hierarchies []Hierarchy, controllers *idset.Set[string]) int {
	for i, h := range hierarchies {
		if h.Controllers.Intersects(controllers) {
			return i
		}
	}
	return -1
}

// ForController returns the Hierarchy owning the given controller, or
// false if no known hierarchy carries it.
func ForController(hierarchies []Hierarchy, controller string) (Hierarchy, bool) {
	for _, h := range hierarchies {
		if h.Controllers.Contains(controller) {
			return h, true
		}
	}
	return Hierarchy{}, false
}
