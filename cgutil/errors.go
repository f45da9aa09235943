// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import "errors"

// Sentinel error kinds shared across both driver backends.
// ErrAlreadyExists is not returned by this package: the Path Planner
// learns of a collision through Attempt's existed result and retries.
var (
	ErrNoControllers = errors.New("cgutil: no usable cgroup controllers")
	ErrNameExhausted = errors.New("cgutil: exhausted all candidate cgroup names")
	ErrAlreadyExists = errors.New("cgutil: cgroup path already exists")
	ErrDisconnected  = errors.New("cgutil: daemon connection lost")
	ErrChownFailed   = errors.New("cgutil: cross-namespace chown rejected")
	ErrUnknownKey    = errors.New("cgutil: no such control file for key")
	ErrLimitFailed   = errors.New("cgutil: failed to apply cgroup setting")
)
