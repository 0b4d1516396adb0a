// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/state"
	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// loadPolicy reads the policy file. A machine without an installed
// policy falls back to the zero policy, which has no reserves and no
// caps.
func loadPolicy(path string) (*policy.Policy, error) {
	pol, err := policy.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No policy file installed, using zero policy",
			slog.String("path", path))

		return &policy.Policy{}, nil
	}

	if err != nil {
		return nil, err
	}

	if err := pol.Validate(); err != nil {
		return nil, err
	}

	return pol, nil
}

// newManager wires a [fairshare.Manager] against the running system.
func newManager(policyPath string) (*fairshare.Manager, error) {
	pol, err := loadPolicy(policyPath)
	if err != nil {
		return nil, err
	}

	totals, err := sysinfo.ReadTotals(pol.Defaults.DiskPartition)
	if err != nil {
		return nil, err
	}

	manager := fairshare.New(
		systemd.NewClient(nil),
		pol,
		state.NewStore(""),
		totals,
	)

	return manager, nil
}
