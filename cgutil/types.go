// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package cgutil holds the types and logic shared by both cgroup
// driver backends: the ContainerCgroup and CgroupSetting data model,
// the Driver facade interface, the Path Planner, SetupLimits, and
// driver selection.
package cgutil

import "strings"

// ContainerCgroup is the per-container core object threaded through
// every cgroup operation. RelPath is populated exactly once, by
// Create, and is safe to read without synchronization afterward.
type ContainerCgroup struct {
	// Name is the container identity, substituted for "%n" in Pattern.
	Name string

	// Pattern is the naming pattern for this container's cgroup path,
	// e.g. "%n" (the default) or "containers/%n".
	Pattern string

	// RelPath is the relative cgroup path chosen by Create, e.g.
	// "foo-2"; it does not include the enclosing group, which drivers
	// join in front of it. Empty until Create succeeds.
	RelPath string
}

// ExpandedBase substitutes the container name into Pattern and strips
// any leading slash, producing the "base" the Path Planner builds
// numbered candidates from.
func (c *ContainerCgroup) ExpandedBase() string {
	pattern := c.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	expanded := strings.ReplaceAll(pattern, "%n", c.Name)
	return strings.TrimPrefix(expanded, "/")
}

// CgroupSetting is a single (qualified key, value) resource-limit
// tuple drawn from configuration. The qualified key has the form
// "<controller>.<rest>"; Controller derives the controller prefix.
type CgroupSetting struct {
	Key   string
	Value string
}

// Controller returns the substring of Key up to (not including) the
// first '.', or "" if Key has no '.'.
func (s CgroupSetting) Controller() string {
	if i := strings.IndexByte(s.Key, '.'); i >= 0 {
		return s.Key[:i]
	}
	return ""
}

// IsDevices reports whether this setting belongs to the "devices"
// controller, the one SetupLimits applies in a strictly later pass.
func (s CgroupSetting) IsDevices() bool {
	return s.Controller() == "devices"
}

// IDMapEntry is one line of a user namespace id map: Size consecutive
// container ids starting at ContainerID map to host ids starting at
// HostID. A non-empty id map is what gates whether Chown performs the
// cross-namespace credential handshake.
type IDMapEntry struct {
	ContainerID int64
	HostID      int64
	Size        int64
}

// MonitorLookup resolves a running container's cgroup relative path by
// asking whatever external component is tracking it: the command
// channel to a running monitor, out of scope for this core. Unfreeze
// and Attach take one of these. Driver.Get, Driver.Set and
// Driver.GetNrTasks do not: they take a *ContainerCgroup the caller
// already holds, and Driver.MountCgroup takes only a root path.
type MonitorLookup func(name string) (*ContainerCgroup, error)

const (
	// DefaultPattern is the cgroup naming pattern used when a
	// ContainerCgroup specifies none.
	DefaultPattern = "%n"

	// DefaultGroup is the enclosing administrative directory container
	// cgroups are allocated under, absent configuration.
	DefaultGroup = "lxc"

	// DefaultNameRetryLimit is the Path Planner's candidate-index upper
	// bound, absent configuration. Spec.md flags this as a policy
	// constant that should be surfaced as configuration rather than a
	// hardcoded literal; Config.NameRetryLimit is that surface, and
	// this constant is only its default.
	DefaultNameRetryLimit = 100
)
