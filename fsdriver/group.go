// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package fsdriver

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/cgroupcore/cgroupslib"
)

// ensureGroup makes sure hroot's enclosing group directory (default
// "lxc") exists, seeding cgroup.clone_children on the hierarchy root
// the first time it is created. Failure to seed clone_children is
// logged and non-fatal.
func (d *Driver) ensureGroup(hroot string) (string, error) {
	groupPath := filepath.Join(hroot, d.group)

	_, statErr := os.Stat(groupPath)
	switch {
	case statErr == nil:
		return groupPath, nil
	case !os.IsNotExist(statErr):
		return "", statErr
	}

	if err := os.MkdirAll(groupPath, 0o755); err != nil {
		return "", err
	}

	if err := cgroupslib.Open(hroot).Write("cgroup.clone_children", "1"); err != nil {
		d.logger.Warn("failed to seed cgroup.clone_children", "hierarchy", hroot, "error", err)
	}

	return groupPath, nil
}
