// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/probe"
)

func newProbeCommand(cfg IO) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Allocate memory step by step until a limit engages",
		Long: "Probe allocates memory in fixed steps and reports the " +
			"cumulative amount\nafter each one. It stops at the first " +
			"failed allocation, so under an\neffective memory limit the " +
			"report ends early.",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return probe.New().Run(cfg.Stdout)
		},
	}
}
