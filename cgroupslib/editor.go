// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cgroupslib

import (
	"path/filepath"
	"strings"

	runccgroups "github.com/opencontainers/runc/libcontainer/cgroups"
)

// Editor reads and writes a single cgroup control file within one
// directory. It is the unit the Fs Driver builds all its cgroup.* /
// tasks / clone_children access on top of.
type Editor interface {
	Read(file string) (string, error)
	Write(file, value string) error
	Path() string
}

// editor is the concrete Editor: a directory path plus the small
// runc/libcontainer helpers for the actual file IO, matching how the
// teacher's own cgutil package leans on
// opencontainers/runc/libcontainer/cgroups.ReadFile/WriteFile instead
// of hand-rolling file IO.
type editor struct {
	dpath string
}

// Open returns an Editor rooted at dir.
func Open(dir string) Editor {
	return &editor{dpath: dir}
}

func (e *editor) Path() string { return e.dpath }

func (e *editor) Read(file string) (string, error) {
	s, err := runccgroups.ReadFile(e.dpath, file)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s, nil
}

func (e *editor) Write(file, value string) error {
	return runccgroups.WriteFile(e.dpath, file, value)
}

// JoinCG1 builds the on-disk path for relPath under hierarchy root
// root, joining through the enclosing group the caller has already
// resolved (or not, for hierarchy-root-level operations).
func JoinCG1(root, relPath string) string {
	return filepath.Join(root, relPath)
}
