// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"os"

	"github.com/hashicorp/hcl"
)

// Config carries the configuration inputs threaded into driver
// selection and container cgroup creation.
type Config struct {
	// Pattern is the cgroup naming pattern; only the literal "%n" is
	// substituted. Defaults to DefaultPattern.
	Pattern string `hcl:"pattern"`

	// Group is the enclosing administrative directory container
	// cgroups are allocated under. Defaults to DefaultGroup.
	Group string `hcl:"group"`

	// Settings is the ordered resource-limit list applied by SetupLimits.
	Settings []CgroupSetting `hcl:"-"`

	// IDMap is the uid/gid map used by Chown. Its presence (non-empty)
	// is what gates whether a cross-namespace chown is attempted.
	IDMap []IDMapEntry `hcl:"-"`

	// NameRetryLimit bounds the Path Planner's candidate search.
	// Surfaced as configuration rather than a hardcoded literal.
	// Defaults to DefaultNameRetryLimit.
	NameRetryLimit int `hcl:"name_retry_limit"`
}

// DefaultConfig returns a Config populated with every documented default.
func DefaultConfig() *Config {
	return &Config{
		Pattern:        DefaultPattern,
		Group:          DefaultGroup,
		NameRetryLimit: DefaultNameRetryLimit,
	}
}

// applyDefaults fills in zero-valued fields left unset by HCL parsing.
func (c *Config) applyDefaults() {
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	if c.NameRetryLimit == 0 {
		c.NameRetryLimit = DefaultNameRetryLimit
	}
}

// LoadConfig reads an HCL configuration file, the same format the rest
// of the surrounding runtime uses for its own configuration, and
// returns a Config with defaults applied for anything left unset.
// CgroupSetting/IDMap lists are populated by the caller (they are
// sourced from the container's own resource spec, not this file).
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := hcl.Decode(cfg, string(raw)); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}
