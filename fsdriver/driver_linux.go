// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

// Package fsdriver implements the Fs Driver backend: the Cgroup Driver
// contract implemented by walking mounted cgroup v1 hierarchies
// directly, creating and removing directories, and reading/writing
// control files.
package fsdriver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/cgroupcore/cgroupslib"
	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
)

// Driver is the Fs Driver. It holds no mutable shared state beyond the
// hierarchy list it discovers once at Init; a *cgutil.ContainerCgroup
// is logically owned by its calling container and needs no locking.
type Driver struct {
	logger      hclog.Logger
	group       string
	planner     *cgutil.Planner
	hierarchies []cgroupslib.Hierarchy
}

var _ cgutil.Driver = (*Driver)(nil)

// New constructs a Driver. group is the enclosing administrative
// directory (cgutil.DefaultGroup if empty); retryLimit bounds the Path
// Planner (cgutil.DefaultNameRetryLimit if <= 0).
func New(logger hclog.Logger, group string, retryLimit int) *Driver {
	if group == "" {
		group = cgutil.DefaultGroup
	}
	logger = logger.Named("fsdriver")
	return &Driver{
		logger:  logger,
		group:   group,
		planner: cgutil.NewPlanner(logger, retryLimit),
	}
}

// Init discovers the kernel's enabled controllers and the hierarchies
// they are mounted on.
func (d *Driver) Init(_ context.Context) error {
	controllers, err := cgroupslib.EnumerateControllers("/proc/cgroups")
	if err != nil {
		if errors.Is(err, cgroupslib.ErrNoControllers) {
			return cgutil.ErrNoControllers
		}
		return err
	}

	hierarchies, err := cgroupslib.EnumerateHierarchies(controllers)
	if err != nil {
		return err
	}
	if len(hierarchies) == 0 {
		return cgutil.ErrNoControllers
	}

	d.hierarchies = hierarchies
	d.logger.Info("discovered cgroup v1 hierarchies", "count", len(hierarchies))
	return nil
}

// Create implements the Path Planner's fan-out over every hierarchy.
func (d *Driver) Create(ctx context.Context, cg *cgutil.ContainerCgroup) error {
	base := cg.ExpandedBase()

	attempt := func(ctx context.Context, candidate string) (bool, error) {
		return cgutil.CreateAcrossTargets(ctx, d.hierarchies, candidate, d.createIn, d.removeIn)
	}

	relPath, err := d.planner.Plan(ctx, base, attempt)
	if err != nil {
		return err
	}

	cg.RelPath = relPath
	return nil
}

func (d *Driver) createIn(_ context.Context, h cgroupslib.Hierarchy, candidate string) (existed bool, err error) {
	groupPath, err := d.ensureGroup(h.Root)
	if err != nil {
		return false, fmt.Errorf("%s: enclosing group: %w", h.Root, err)
	}

	full := filepath.Join(groupPath, candidate)
	if err := os.Mkdir(full, 0o755); err != nil {
		if os.IsExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("%s: %w", full, err)
	}
	return false, nil
}

func (d *Driver) removeIn(_ context.Context, h cgroupslib.Hierarchy, candidate string) error {
	full := filepath.Join(h.Root, d.group, candidate)
	return os.RemoveAll(full)
}

// Enter writes pid to tasks under cg's path in every hierarchy.
func (d *Driver) Enter(_ context.Context, cg *cgutil.ContainerCgroup, pid int) error {
	line := strconv.Itoa(pid) + "\n"
	for _, h := range d.hierarchies {
		path := filepath.Join(h.Root, d.group, cg.RelPath)
		if err := cgroupslib.Open(path).Write("tasks", line); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// Get reads a single qualified key from the hierarchy owning its
// controller prefix.
func (d *Driver) Get(_ context.Context, cg *cgutil.ContainerCgroup, key string) (string, error) {
	h, ok := d.hierarchyFor(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", cgutil.ErrUnknownKey, key)
	}

	path := filepath.Join(h.Root, d.group, cg.RelPath)
	value, err := cgroupslib.Open(path).Read(key)
	if err != nil {
		return "", fmt.Errorf("%s/%s: %w", path, key, err)
	}
	return value, nil
}

// Set writes value to the control file named by the qualified key.
func (d *Driver) Set(_ context.Context, cg *cgutil.ContainerCgroup, key, value string) error {
	h, ok := d.hierarchyFor(key)
	if !ok {
		return fmt.Errorf("%w: %q", cgutil.ErrUnknownKey, key)
	}

	path := filepath.Join(h.Root, d.group, cg.RelPath)
	if err := cgroupslib.Open(path).Write(key, value); err != nil {
		return fmt.Errorf("%s/%s: %w", path, key, err)
	}
	return nil
}

func (d *Driver) hierarchyFor(key string) (cgroupslib.Hierarchy, bool) {
	i := strings.IndexByte(key, '.')
	if i < 0 {
		return cgroupslib.Hierarchy{}, false
	}
	return cgroupslib.ForController(d.hierarchies, key[:i])
}

// GetNrTasks counts the pids in tasks of the first hierarchy. Returns
// (-1, err) if cg has no cgroup yet, rather than a coerced boolean.
func (d *Driver) GetNrTasks(_ context.Context, cg *cgutil.ContainerCgroup) (int, error) {
	if cg.RelPath == "" || len(d.hierarchies) == 0 {
		return -1, fmt.Errorf("cgroup not created")
	}

	path := filepath.Join(d.hierarchies[0].Root, d.group, cg.RelPath)
	raw, err := cgroupslib.Open(path).Read("tasks")
	if err != nil {
		return -1, fmt.Errorf("%s/tasks: %w", path, err)
	}
	return len(strings.Fields(raw)), nil
}

// Destroy recursively removes cg's cgroup from every hierarchy,
// best-effort: it continues past individual failures, and treats a
// hierarchy whose directory is already gone (removed out-of-band) as
// success after logging a warning.
func (d *Driver) Destroy(_ context.Context, cg *cgutil.ContainerCgroup) (bool, error) {
	var result *multierror.Error
	ok := true

	for _, h := range d.hierarchies {
		path := filepath.Join(h.Root, d.group, cg.RelPath)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			d.logger.Warn("cgroup already removed out of band", "path", path)
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			d.logger.Warn("failed to remove cgroup", "path", path, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
			ok = false
		}
	}

	if result != nil {
		return ok, result.ErrorOrNil()
	}
	return ok, nil
}

// Chown is a no-op: the Fs Driver never crosses a user-namespace
// boundary.
func (d *Driver) Chown(context.Context, *cgutil.ContainerCgroup, []cgutil.IDMapEntry) error {
	return nil
}

// MountCgroup is a no-op for the Fs Driver; bind-mounting a daemon
// socket directory is a Daemon Driver concern.
func (d *Driver) MountCgroup(context.Context, string) error {
	return nil
}
