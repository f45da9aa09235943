// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package daemon

import "context"

// Request/response types for the daemon's RPC verbs. Names mirror
// cgmanager's own verb set (cgm_create, cgm_remove, cgm_chmod,
// cgm_move_pid, cgm_move_pid_abs, cgm_set_value, cgm_get_value,
// cgm_get_tasks, cgm_ping), adapted to this module's controller/path
// naming. cgm_chown_scm has no RPC type here: chown.go sends it over
// its own raw connection.

type PingRequest struct{}

type CreateRequest struct {
	Controller string
	Path       string
}

type CreateResponse struct {
	Existed bool
}

type RemoveRequest struct {
	Controller string
	Path       string
	Recursive  bool
}

type ChmodRequest struct {
	Controller string
	Path       string
	Mode       uint32
}

type MovePidRequest struct {
	Controller string
	Path       string
	Pid        int
}

// MovePidAbsRequest relocates a pid to the controller's absolute root,
// used once at driver init (when running as root) to move this process
// out of the cgroup it inherited.
type MovePidAbsRequest struct {
	Controller string
	Pid        int
}

type SetValueRequest struct {
	Controller string
	Path       string
	Key        string
	Value      string
}

type GetValueRequest struct {
	Controller string
	Path       string
	Key        string
}

type GetTasksRequest struct {
	Controller string
	Path       string
}

type GetTasksResponse struct {
	Pids []int
}

// Create asks the daemon to create path under controller: one Create
// call per controller the Path Planner is trying a candidate against.
func (h *ConnectionHandle) Create(ctx context.Context, controller, path string) (existed bool, err error) {
	var resp CreateResponse
	err = h.call(ctx, "Verb.Create", &CreateRequest{Controller: controller, Path: path}, &resp)
	return resp.Existed, err
}

// Remove asks the daemon to recursively remove path under controller.
func (h *ConnectionHandle) Remove(ctx context.Context, controller, path string) error {
	var ignored struct{}
	return h.call(ctx, "Verb.Remove", &RemoveRequest{Controller: controller, Path: path, Recursive: true}, &ignored)
}

// Chmod sets path's mode under controller, used by the chown handshake
// to open permissions to 0775 on success.
func (h *ConnectionHandle) Chmod(ctx context.Context, controller, path string, mode uint32) error {
	var ignored struct{}
	return h.call(ctx, "Verb.Chmod", &ChmodRequest{Controller: controller, Path: path, Mode: mode}, &ignored)
}

// MovePid enters pid into path under controller.
func (h *ConnectionHandle) MovePid(ctx context.Context, controller, path string, pid int) error {
	var ignored struct{}
	return h.call(ctx, "Verb.MovePid", &MovePidRequest{Controller: controller, Path: path, Pid: pid}, &ignored)
}

// MovePidAbs moves pid to controller's absolute root.
func (h *ConnectionHandle) MovePidAbs(ctx context.Context, controller string, pid int) error {
	var ignored struct{}
	return h.call(ctx, "Verb.MovePidAbs", &MovePidAbsRequest{Controller: controller, Pid: pid}, &ignored)
}

// SetValue writes value to key under path in controller.
func (h *ConnectionHandle) SetValue(ctx context.Context, controller, path, key, value string) error {
	var ignored struct{}
	return h.call(ctx, "Verb.SetValue", &SetValueRequest{Controller: controller, Path: path, Key: key, Value: value}, &ignored)
}

// GetValue reads key under path in controller.
func (h *ConnectionHandle) GetValue(ctx context.Context, controller, path, key string) (string, error) {
	var value string
	err := h.call(ctx, "Verb.GetValue", &GetValueRequest{Controller: controller, Path: path, Key: key}, &value)
	return value, err
}

// GetTasks lists the pids in path under controller.
func (h *ConnectionHandle) GetTasks(ctx context.Context, controller, path string) ([]int, error) {
	var resp GetTasksResponse
	err := h.call(ctx, "Verb.GetTasks", &GetTasksRequest{Controller: controller, Path: path}, &resp)
	return resp.Pids, err
}
