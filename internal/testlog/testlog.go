// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package testlog adapts hclog to *testing.T, so test failures carry
// the log lines emitted during the failing test.
package testlog

import (
	"testing"

	"github.com/hashicorp/go-hclog"
)

// HCLogger returns an hclog.Logger that writes through t.Log, at Trace
// level so nothing is filtered during debugging.
func HCLogger(t *testing.T) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            t.Name(),
		Level:           hclog.Trace,
		Output:          testWriter{t},
		IncludeLocation: true,
	})
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
