// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package uuid generates random identifiers for test fixtures (cgroup
// names, socket temp dirs) that must not collide across parallel test
// runs.
package uuid

import (
	"github.com/hashicorp/go-uuid"
)

// Generate returns a new random UUID string.
func Generate() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		panic(err)
	}
	return id
}

// Short returns the first 8 characters of a new random UUID, long
// enough to avoid collisions in a single test run's fixture names.
func Short() string {
	return Generate()[:8]
}
