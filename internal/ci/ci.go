// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package ci provides small test-harness helpers shared across this
// module's packages.
package ci

import (
	"os"
	"testing"
)

// Parallel marks t safe to run in parallel with its sibling tests,
// unless CI disables parallelism via NOPARALLEL (some CI runners are
// resource constrained enough that parallel cgroup manipulation tests
// flake).
func Parallel(t *testing.T) {
	t.Helper()
	if os.Getenv("NOPARALLEL") == "" {
		t.Parallel()
	}
}
