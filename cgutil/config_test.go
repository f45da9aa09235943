// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shoenig/test/must"
)

func Test_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cgroup.hcl")

	hcl := `
pattern = "containers/%n"
group = "custom-lxc"
name_retry_limit = 10
`
	must.NoError(t, os.WriteFile(file, []byte(hcl), 0o644))

	cfg, err := LoadConfig(file)
	must.NoError(t, err)
	must.Eq(t, "containers/%n", cfg.Pattern)
	must.Eq(t, "custom-lxc", cfg.Group)
	must.Eq(t, 10, cfg.NameRetryLimit)
}

func Test_LoadConfig_appliesDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cgroup.hcl")
	must.NoError(t, os.WriteFile(file, []byte(""), 0o644))

	cfg, err := LoadConfig(file)
	must.NoError(t, err)
	must.Eq(t, DefaultPattern, cfg.Pattern)
	must.Eq(t, DefaultGroup, cfg.Group)
	must.Eq(t, DefaultNameRetryLimit, cfg.NameRetryLimit)
}

func Test_LoadConfig_partialDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cgroup.hcl")
	must.NoError(t, os.WriteFile(file, []byte(`group = "only-group-set"`), 0o644))

	cfg, err := LoadConfig(file)
	must.NoError(t, err)
	must.Eq(t, DefaultPattern, cfg.Pattern)
	must.Eq(t, "only-group-set", cfg.Group)
	must.Eq(t, DefaultNameRetryLimit, cfg.NameRetryLimit)
}

func Test_LoadConfig_missingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.hcl"))
	must.Error(t, err)
}

func Test_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	must.Eq(t, DefaultPattern, cfg.Pattern)
	must.Eq(t, DefaultGroup, cfg.Group)
	must.Eq(t, DefaultNameRetryLimit, cfg.NameRetryLimit)
}
