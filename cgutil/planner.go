// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// Attempt creates, or reports the existence of, a single candidate
// relative path across every hierarchy/controller a driver manages. It
// is responsible for its own partial rollback: if any target reports
// the path already exists, Attempt must remove whatever it itself just
// created for this candidate before returning existed=true. This is
// the seam between the driver-agnostic retry loop below (Planner.Plan)
// and each backend's substrate-specific fan-out (fsdriver loops over
// Hierarchies, daemon loops over controller names via RPC).
type Attempt func(ctx context.Context, candidate string) (existed bool, err error)

// Planner implements the Path Planner: given a base name, it tries
// numbered candidates until one is free in every hierarchy/controller,
// or the retry bound is exhausted.
type Planner struct {
	Logger     hclog.Logger
	RetryLimit int
}

// NewPlanner returns a Planner with the given retry bound. A limit of
// 0 uses DefaultNameRetryLimit.
func NewPlanner(logger hclog.Logger, limit int) *Planner {
	if limit <= 0 {
		limit = DefaultNameRetryLimit
	}
	return &Planner{Logger: logger.Named("planner"), RetryLimit: limit}
}

// Plan tries base, then base-1, base-2, ... up to RetryLimit
// candidates, calling attempt for each. The first candidate attempt
// reports as not already existing wins.
func (p *Planner) Plan(ctx context.Context, base string, attempt Attempt) (string, error) {
	for i := 0; i < p.RetryLimit; i++ {
		candidate := base
		if i > 0 {
			candidate = base + "-" + strconv.Itoa(i)
		}

		existed, err := attempt(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("cgutil: planner attempt %q: %w", candidate, err)
		}
		if existed {
			p.Logger.Debug("candidate already exists, retrying", "candidate", candidate)
			continue
		}

		p.Logger.Debug("selected cgroup path", "path", candidate)
		return candidate, nil
	}

	return "", fmt.Errorf("%w: after %d candidates", ErrNameExhausted, p.RetryLimit)
}

// CreateAcrossTargets fans Attempt's per-candidate creation out across
// targets concurrently, and performs a total rollback: if any target
// reports the path already exists, or any target fails outright, every
// target that this call itself created for this candidate is removed
// before returning.
func CreateAcrossTargets[T any](
	ctx context.Context,
	targets []T,
	candidate string,
	create func(ctx context.Context, target T, candidate string) (existed bool, err error),
	remove func(ctx context.Context, target T, candidate string) error,
) (existed bool, err error) {
	type result struct {
		target  T
		created bool
		existed bool
	}

	results := make([]result, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			e, err := create(gctx, target, candidate)
			if err != nil {
				return err
			}
			results[i] = result{target: target, created: !e, existed: e}
			return nil
		})
	}
	runErr := g.Wait()

	anyExisted := false
	for _, r := range results {
		if r.existed {
			anyExisted = true
			break
		}
	}

	if runErr != nil || anyExisted {
		for _, r := range results {
			if r.created {
				_ = remove(ctx, r.target, candidate)
			}
		}
	}

	if runErr != nil {
		return false, runErr
	}
	return anyExisted, nil
}
