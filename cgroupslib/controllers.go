// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cgroupslib

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrNoControllers is returned by EnumerateControllers when the kernel
// reports no usable cgroup v1 controllers at all.
var ErrNoControllers = errors.New("cgroupslib: no usable cgroup controllers")

// Controller is a single row of the kernel's /proc/cgroups table: a
// named resource manager and whether it is currently enabled.
type Controller struct {
	Name    string
	Enabled bool
}

// EnumerateControllers reads the kernel's advertised controller table
// (/proc/cgroups by default) and returns the controllers with their
// enable bit set. Commented (#-prefixed) and blank lines are skipped.
// Fails with ErrNoControllers if no controller is enabled.
func EnumerateControllers(procCgroupsPath string) ([]Controller, error) {
	f, err := os.Open(procCgroupsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	controllers, err := parseProcCgroups(f)
	if err != nil {
		return nil, err
	}
	if len(controllers) == 0 {
		return nil, ErrNoControllers
	}
	return controllers, nil
}

// parseProcCgroups implements the /proc/cgroups format: tab-delimited
// rows of (subsys_name, hierarchy, num_cgroups, enabled), '#'-prefixed
// header/comment rows skipped.
func parseProcCgroups(r io.Reader) ([]Controller, error) {
	var out []Controller

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		name := fields[0]
		enabled := fields[3] == "1"
		if !enabled {
			continue
		}

		out = append(out, Controller{Name: name, Enabled: enabled})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
