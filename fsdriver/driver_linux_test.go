// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package fsdriver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/cgroupcore/cgroupslib"
	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/cgroupcore/idset"
	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

// newTestDriver builds a Driver over real temp-directory hierarchies,
// bypassing Init's /proc/cgroups scan so tests don't depend on the
// host's actual mount table.
func newTestDriver(t *testing.T, controllerSets ...[]string) *Driver {
	t.Helper()

	d := New(hclog.NewNullLogger(), "lxc", 5)
	for _, names := range controllerSets {
		root := t.TempDir()
		set := idset.From(names)
		d.hierarchies = append(d.hierarchies, cgroupslib.Hierarchy{Root: root, Controllers: set})
	}
	return d
}

func Test_Driver_Create_and_Enter(t *testing.T) {
	d := newTestDriver(t, []string{"memory"}, []string{"cpu", "cpuacct"})
	cg := &cgutil.ContainerCgroup{Name: "c1"}

	err := d.Create(context.Background(), cg)
	must.NoError(t, err)
	must.Eq(t, "c1", cg.RelPath)

	for _, h := range d.hierarchies {
		must.DirExists(t, filepath.Join(h.Root, "lxc", "c1"))
	}

	// tasks file is seeded by the kernel in real life; for this test
	// create it manually so Enter has something to write.
	for _, h := range d.hierarchies {
		path := filepath.Join(h.Root, "lxc", "c1", "tasks")
		must.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	must.NoError(t, d.Enter(context.Background(), cg, 4242))

	for _, h := range d.hierarchies {
		raw, err := os.ReadFile(filepath.Join(h.Root, "lxc", "c1", "tasks"))
		must.NoError(t, err)
		must.Eq(t, "4242\n", string(raw))
	}
}

func Test_Driver_Create_collisionRetries(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	h := d.hierarchies[0]

	must.NoError(t, os.MkdirAll(filepath.Join(h.Root, "lxc", "c1"), 0o755))

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	must.Eq(t, "c1-1", cg.RelPath)
}

func Test_Driver_Get_Set(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	h := d.hierarchies[0]

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	path := filepath.Join(h.Root, "lxc", "c1", "memory.limit_in_bytes")
	must.NoError(t, os.WriteFile(path, nil, 0o644))

	must.NoError(t, d.Set(context.Background(), cg, "memory.limit_in_bytes", "1048576"))

	got, err := d.Get(context.Background(), cg, "memory.limit_in_bytes")
	must.NoError(t, err)
	must.Eq(t, "1048576\n", got)
}

func Test_Driver_Get_unknownController(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	_, err := d.Get(context.Background(), cg, "cpu.shares")
	must.ErrorIs(t, err, cgutil.ErrUnknownKey)
}

func Test_Driver_GetNrTasks(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	h := d.hierarchies[0]

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	path := filepath.Join(h.Root, "lxc", "c1", "tasks")
	must.NoError(t, os.WriteFile(path, []byte("1 2 3\n"), 0o644))

	n, err := d.GetNrTasks(context.Background(), cg)
	must.NoError(t, err)
	must.Eq(t, 3, n)
}

func Test_Driver_GetNrTasks_notCreated(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	n, err := d.GetNrTasks(context.Background(), &cgutil.ContainerCgroup{Name: "c1"})
	must.Error(t, err)
	must.Eq(t, -1, n)
}

func Test_Driver_Destroy(t *testing.T) {
	d := newTestDriver(t, []string{"memory"}, []string{"cpu"})
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	ok, err := d.Destroy(context.Background(), cg)
	must.NoError(t, err)
	must.True(t, ok)

	for _, h := range d.hierarchies {
		_, statErr := os.Stat(filepath.Join(h.Root, "lxc", "c1"))
		must.True(t, os.IsNotExist(statErr))
	}
}

func Test_Driver_Destroy_outOfBandRemoval(t *testing.T) {
	d := newTestDriver(t, []string{"memory"}, []string{"cpu"})
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	// simulate an operator removing one hierarchy's directory already
	must.NoError(t, os.RemoveAll(filepath.Join(d.hierarchies[0].Root, "lxc", "c1")))

	ok, err := d.Destroy(context.Background(), cg)
	must.NoError(t, err)
	must.True(t, ok)
}

func Test_Driver_Chown_and_MountCgroup_noop(t *testing.T) {
	d := newTestDriver(t, []string{"memory"})
	must.NoError(t, d.Chown(context.Background(), &cgutil.ContainerCgroup{}, nil))
	must.NoError(t, d.MountCgroup(context.Background(), "/whatever"))
}
