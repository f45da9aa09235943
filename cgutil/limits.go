// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"context"
	"fmt"
)

// SetupLimits applies an ordered list of CgroupSettings through driver
// via two passes: everything but the "devices" subsystem first, then
// "devices", so a device whitelist write never narrows access before
// the rest of the settings take effect. Within a pass, settings are
// applied in input order. Any failure aborts immediately and leaves
// prior writes in place; no rollback is attempted, a deliberate
// best-effort tradeoff.
func SetupLimits(ctx context.Context, driver Driver, cg *ContainerCgroup, settings []CgroupSetting) error {
	for _, s := range settings {
		if s.IsDevices() {
			continue
		}
		if err := applyOne(ctx, driver, cg, s); err != nil {
			return err
		}
	}

	for _, s := range settings {
		if !s.IsDevices() {
			continue
		}
		if err := applyOne(ctx, driver, cg, s); err != nil {
			return err
		}
	}

	return nil
}

func applyOne(ctx context.Context, driver Driver, cg *ContainerCgroup, s CgroupSetting) error {
	if s.Controller() == "" {
		return fmt.Errorf("%w: key %q has no controller prefix", ErrUnknownKey, s.Key)
	}
	if err := driver.Set(ctx, cg, s.Key, s.Value); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrLimitFailed, s.Key, err)
	}
	return nil
}
