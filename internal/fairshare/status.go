// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fairshare

import (
	"context"
	"fmt"

	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// Status is a snapshot of the whole machine: totals, reserves, the sum
// of all user allocations and what remains.
type Status struct {
	Totals    sysinfo.Totals
	Reserve   sysinfo.Usage
	Used      sysinfo.Usage
	Available sysinfo.Usage

	// Allocations lists all user slices, including unlimited ones.
	Allocations []UserStatus
}

// UserStatus is one user's entry in the [Status] overview.
type UserStatus struct {
	UID      uint32
	Username string
	// CPUQuota in percent, 0 when unlimited.
	CPUQuota float64
	CPUs     float64
	MemoryGB float64
	Limited  bool
}

// Status collects the current allocation state of all users.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	allocations, err := m.systemd.ListAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	status := &Status{
		Totals:  m.totals,
		Reserve: m.Policy().Reserve(),
	}

	for _, alloc := range allocations {
		status.Used = status.Used.Add(alloc.Usage())

		status.Allocations = append(status.Allocations, UserStatus{
			UID:      alloc.UID,
			Username: systemd.Username(alloc.UID),
			CPUQuota: alloc.CPUQuota,
			CPUs:     alloc.CPUs(),
			MemoryGB: alloc.MemoryGB(),
			Limited:  alloc.Limited(),
		})
	}

	status.Available = sysinfo.Available(m.totals, status.Used, status.Reserve)

	return status, nil
}
