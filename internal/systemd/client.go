// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
)

// Client runs systemctl operations against user slices.
type Client struct {
	run RunFunc
}

// NewClient creates a new [Client]. A nil run function selects the real
// systemctl execution.
func NewClient(run RunFunc) *Client {
	if run == nil {
		run = execCommand
	}

	return &Client{run: run}
}

// SetLimits applies the CPU and memory limits on the user's slice. cpu is in
// cores, mem in decimal gigabytes.
func (c *Client) SetLimits(ctx context.Context, uid, cpu, mem uint32) error {
	unit := UnitForUID(uid)

	slog.Debug("Setting slice properties",
		slog.String("unit", unit),
		slog.Uint64("cpu", uint64(cpu)),
		slog.Uint64("mem_gb", uint64(mem)))

	_, err := c.run(ctx, "systemctl", "set-property", unit,
		fmt.Sprintf("CPUQuota=%d%%", cpu*100),
		fmt.Sprintf("MemoryMax=%d", uint64(mem)*sysinfo.BytesPerGB),
	)
	if err != nil {
		return fmt.Errorf("set properties of %s: %w", unit, err)
	}

	return nil
}

// Revert removes all property overrides from the user's slice, falling back
// to the configured defaults.
func (c *Client) Revert(ctx context.Context, uid uint32) error {
	unit := UnitForUID(uid)

	slog.Debug("Reverting slice properties", slog.String("unit", unit))

	_, err := c.run(ctx, "systemctl", "revert", unit)
	if err != nil {
		return fmt.Errorf("revert %s: %w", unit, err)
	}

	return nil
}

// Show reads the current limits of the user's slice.
func (c *Client) Show(ctx context.Context, uid uint32) (Allocation, error) {
	unit := UnitForUID(uid)

	out, err := c.run(ctx, "systemctl", "show", unit,
		"-p", memoryMaxProperty,
		"-p", cpuQuotaProperty,
	)
	if err != nil {
		return Allocation{}, fmt.Errorf("show %s: %w", unit, err)
	}

	return parseShow(uid, string(out)), nil
}

// ListAllocations enumerates all user slices and their current limits. The
// root user's slice is skipped.
func (c *Client) ListAllocations(ctx context.Context) ([]Allocation, error) {
	out, err := c.run(ctx, "systemctl", "list-units",
		"--type=slice", "--all", "--no-legend", "--plain",
	)
	if err != nil {
		return nil, fmt.Errorf("list slice units: %w", err)
	}

	var allocations []Allocation

	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		uid, err := UIDFromUnit(fields[0])
		if err != nil || uid == 0 {
			continue
		}

		alloc, err := c.Show(ctx, uid)
		if err != nil {
			return nil, err
		}

		allocations = append(allocations, alloc)
	}

	return allocations, nil
}

// DaemonReload makes systemd re-read its unit configuration.
func (c *Client) DaemonReload(ctx context.Context) error {
	_, err := c.run(ctx, "systemctl", "daemon-reload")
	if err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}

	return nil
}
