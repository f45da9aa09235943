// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package daemon

import (
	"context"
	"os"
	"testing"

	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/cgroupcore/idset"
	"github.com/hashicorp/cgroupcore/testutil"
	"github.com/hashicorp/go-hclog"
	"github.com/shoenig/test/must"
)

// newTestDriver builds a Driver wired to an in-process FakeDaemon and
// a fixed controller set, bypassing Init's /proc/cgroups scan so the
// test doesn't depend on the host's real controller table.
func newTestDriver(t *testing.T, controllers ...string) (*Driver, *testutil.FakeDaemon) {
	t.Helper()

	fd := testutil.StartFakeDaemon(t)

	d := New(hclog.NewNullLogger(), "lxc", fd.SocketPath, 5)
	conn, err := Connect(d.logger, fd.SocketPath)
	must.NoError(t, err)
	d.conn = conn

	d.controllers = idset.From(controllers)

	t.Cleanup(func() { _ = d.Disconnect() })

	return d, fd
}

func Test_Driver_Create(t *testing.T) {
	d, _ := newTestDriver(t, "memory", "cpu")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	must.Eq(t, "c1", cg.RelPath)
}

func Test_Driver_Create_collisionRetries(t *testing.T) {
	d, fd := newTestDriver(t, "memory")

	// pre-seed "lxc/c1" as already existing under memory
	fd.Seed("memory", "lxc/c1")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	must.Eq(t, "c1-1", cg.RelPath)
}

func Test_Driver_Enter_and_GetNrTasks(t *testing.T) {
	d, _ := newTestDriver(t, "memory")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	must.NoError(t, d.Enter(context.Background(), cg, 777))

	n, err := d.GetNrTasks(context.Background(), cg)
	must.NoError(t, err)
	must.Eq(t, 1, n)
}

func Test_Driver_Get_Set(t *testing.T) {
	d, _ := newTestDriver(t, "memory")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	must.NoError(t, d.Set(context.Background(), cg, "memory.limit_in_bytes", "1048576"))

	got, err := d.Get(context.Background(), cg, "memory.limit_in_bytes")
	must.NoError(t, err)
	must.Eq(t, "1048576\n", got)
}

func Test_Driver_Get_unknownController(t *testing.T) {
	d, _ := newTestDriver(t, "memory")
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	_, err := d.Get(context.Background(), cg, "cpu.shares")
	must.ErrorIs(t, err, cgutil.ErrUnknownKey)
}

func Test_Driver_GetNrTasks_notCreated(t *testing.T) {
	d, _ := newTestDriver(t, "memory")
	n, err := d.GetNrTasks(context.Background(), &cgutil.ContainerCgroup{Name: "c1"})
	must.Error(t, err)
	must.Eq(t, -1, n)
}

func Test_Driver_Destroy(t *testing.T) {
	d, _ := newTestDriver(t, "memory", "cpu")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	ok, err := d.Destroy(context.Background(), cg)
	must.NoError(t, err)
	must.True(t, ok)
}

func Test_Driver_Chown_noop_without_idmap(t *testing.T) {
	d, _ := newTestDriver(t, "memory")
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	must.NoError(t, d.Chown(context.Background(), cg, nil))
}

// Test_Driver_Chown_handshake drives the real chown_scm credential
// handshake end to end against the fake daemon: host creds, then
// namespaced creds carrying the mapped uid, then a status byte. The
// namespaced send re-execs with a Credential that forces Gid 0, so
// exercising it at all requires real privilege.
func Test_Driver_Chown_handshake(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("chown_scm handshake requires root to set a namespaced credential")
	}

	d, fd := newTestDriver(t, "memory")
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	idMap := []cgutil.IDMapEntry{{ContainerID: 0, HostID: 100000, Size: 65536}}
	must.NoError(t, d.Chown(context.Background(), cg, idMap))

	recs := fd.ChownRecords()
	must.Len(t, 1, recs)
	must.Eq(t, "memory", recs[0].Controller)
	must.Eq(t, "lxc/c1", recs[0].Path)
	must.Eq(t, os.Getpid(), recs[0].HostPID)
	must.Eq(t, os.Getuid(), recs[0].HostUID)
	must.Eq(t, 100000, recs[0].NamespacedUID)
}

// Test_Driver_Chown_handshake_failure exercises the handshake's final
// status byte: anything other than '1' surfaces as ErrChownFailed,
// even though every credential send in the handshake itself succeeded.
func Test_Driver_Chown_handshake_failure(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("chown_scm handshake requires root to set a namespaced credential")
	}

	d, fd := newTestDriver(t, "memory")
	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))
	fd.SetChownStatus('0')

	idMap := []cgutil.IDMapEntry{{ContainerID: 0, HostID: 100000, Size: 65536}}
	err := d.Chown(context.Background(), cg, idMap)
	must.ErrorIs(t, err, cgutil.ErrChownFailed)
}

// Test_Driver_Enter_disconnectAndReconnect covers a daemon connection
// dropping between Create and Enter: Enter must fail with
// ErrDisconnected, and a later reconnect must let it succeed again
// against the same cgroup.
func Test_Driver_Enter_disconnectAndReconnect(t *testing.T) {
	d, fd := newTestDriver(t, "memory")

	cg := &cgutil.ContainerCgroup{Name: "c1"}
	must.NoError(t, d.Create(context.Background(), cg))

	// simulate the connection dropping out from under the driver: the
	// daemon side goes away and the client side notices immediately.
	fd.Stop()
	must.NoError(t, d.conn.Disconnect())

	err := d.Enter(context.Background(), cg, 777)
	must.ErrorIs(t, err, cgutil.ErrDisconnected)

	// daemon comes back on the same socket path
	fd.Resume(t)
	must.NoError(t, d.conn.reconnect())

	must.NoError(t, d.Enter(context.Background(), cg, 777))
}
