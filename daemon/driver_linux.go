// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package daemon

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/hashicorp/cgroupcore/cgroupslib"
	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/cgroupcore/idset"
	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
)

// Driver is the Daemon Driver: the Cgroup Driver contract implemented
// as RPC calls over a ConnectionHandle to a privileged cgroup daemon.
type Driver struct {
	logger      hclog.Logger
	group       string
	socketPath  string
	planner     *cgutil.Planner
	conn        *ConnectionHandle
	controllers *idset.Set[string]
}

var _ cgutil.Driver = (*Driver)(nil)
var _ cgutil.Disconnecter = (*Driver)(nil)

// New constructs a Daemon Driver. socketPath defaults to
// DefaultSocketPath, group to cgutil.DefaultGroup, retryLimit to
// cgutil.DefaultNameRetryLimit.
func New(logger hclog.Logger, group, socketPath string, retryLimit int) *Driver {
	if group == "" {
		group = cgutil.DefaultGroup
	}
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	logger = logger.Named("daemon")
	return &Driver{
		logger:     logger,
		group:      group,
		socketPath: socketPath,
		planner:    cgutil.NewPlanner(logger, retryLimit),
	}
}

// Init connects to the daemon, pinging to force capability negotiation,
// discovers the kernel's controller table, and, when
// running as the real superuser, escapes any inherited cgroup by
// moving this process to the root of every controller.
func (d *Driver) Init(ctx context.Context) error {
	conn, err := Connect(d.logger, d.socketPath)
	if err != nil {
		return err
	}
	d.conn = conn

	controllers, err := cgroupslib.EnumerateControllers("/proc/cgroups")
	if err != nil {
		return err
	}
	if len(controllers) == 0 {
		return cgutil.ErrNoControllers
	}

	names := idset.Empty[string]()
	for _, c := range controllers {
		names.Insert(c.Name)
	}
	d.controllers = names

	if os.Geteuid() == 0 {
		if err := d.escapeToRoot(ctx); err != nil {
			return fmt.Errorf("root escape: %w", err)
		}
	}

	return nil
}

// escapeToRoot detaches this process from any inherited cgroup so that
// container cgroups subsequently created are children of the
// controller root, not of the caller's own cgroup, the same root
// escape cgmanager performs on startup.
func (d *Driver) escapeToRoot(ctx context.Context) error {
	pid := os.Getpid()
	for _, controller := range d.controllers.Slice() {
		if err := d.conn.MovePidAbs(ctx, controller, pid); err != nil {
			return fmt.Errorf("%s: %w", controller, err)
		}
	}
	return nil
}

// Create fans the Path Planner's candidate search out across every
// known controller.
func (d *Driver) Create(ctx context.Context, cg *cgutil.ContainerCgroup) error {
	base := cg.ExpandedBase()
	controllers := d.controllers.Slice()

	attempt := func(ctx context.Context, candidate string) (bool, error) {
		return cgutil.CreateAcrossTargets(ctx, controllers, candidate, d.createIn, d.removeIn)
	}

	relPath, err := d.planner.Plan(ctx, base, attempt)
	if err != nil {
		return err
	}

	cg.RelPath = relPath
	return nil
}

func (d *Driver) createIn(ctx context.Context, controller, candidate string) (existed bool, err error) {
	full := path.Join(d.group, candidate)
	return d.conn.Create(ctx, controller, full)
}

func (d *Driver) removeIn(ctx context.Context, controller, candidate string) error {
	full := path.Join(d.group, candidate)
	return d.conn.Remove(ctx, controller, full)
}

// Enter places pid into cg's cgroup under every known controller,
// fail-fast on the first error.
func (d *Driver) Enter(ctx context.Context, cg *cgutil.ContainerCgroup, pid int) error {
	full := path.Join(d.group, cg.RelPath)
	for _, controller := range d.controllers.Slice() {
		if err := d.conn.MovePid(ctx, controller, full, pid); err != nil {
			return fmt.Errorf("%s: %w", controller, err)
		}
	}
	return nil
}

// Get reads a single qualified key via the daemon.
func (d *Driver) Get(ctx context.Context, cg *cgutil.ContainerCgroup, key string) (string, error) {
	controller, file, ok := splitKey(key)
	if !ok || !d.controllers.Contains(controller) {
		return "", fmt.Errorf("%w: %q", cgutil.ErrUnknownKey, key)
	}

	full := path.Join(d.group, cg.RelPath)
	value, err := d.conn.GetValue(ctx, controller, full, file)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(value, "\n") {
		value += "\n"
	}
	return value, nil
}

// Set writes value to the control file named by the qualified key via
// the daemon.
func (d *Driver) Set(ctx context.Context, cg *cgutil.ContainerCgroup, key, value string) error {
	controller, file, ok := splitKey(key)
	if !ok || !d.controllers.Contains(controller) {
		return fmt.Errorf("%w: %q", cgutil.ErrUnknownKey, key)
	}

	full := path.Join(d.group, cg.RelPath)
	return d.conn.SetValue(ctx, controller, full, file, value)
}

func splitKey(key string) (controller, file string, ok bool) {
	i := strings.IndexByte(key, '.')
	if i < 0 {
		return "", "", false
	}
	return key[:i], key, true
}

// GetNrTasks counts the pids the daemon reports for the first known
// controller. Returns (-1, err) rather than a coerced boolean when cg
// has no cgroup yet.
func (d *Driver) GetNrTasks(ctx context.Context, cg *cgutil.ContainerCgroup) (int, error) {
	if cg.RelPath == "" || d.controllers.IsEmpty() {
		return -1, fmt.Errorf("cgroup not created")
	}

	controller := d.controllers.Slice()[0]
	full := path.Join(d.group, cg.RelPath)
	pids, err := d.conn.GetTasks(ctx, controller, full)
	if err != nil {
		return -1, err
	}
	return len(pids), nil
}

// Destroy removes cg's cgroup from every known controller, best-effort.
func (d *Driver) Destroy(ctx context.Context, cg *cgutil.ContainerCgroup) (bool, error) {
	var result *multierror.Error
	ok := true
	full := path.Join(d.group, cg.RelPath)

	for _, controller := range d.controllers.Slice() {
		if err := d.conn.Remove(ctx, controller, full); err != nil {
			d.logger.Warn("failed to remove cgroup", "controller", controller, "path", full, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", controller, err))
			ok = false
		}
	}

	if result != nil {
		return ok, result.ErrorOrNil()
	}
	return ok, nil
}

// Disconnect releases the daemon connection. Implements
// cgutil.Disconnecter.
func (d *Driver) Disconnect() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Disconnect()
}
