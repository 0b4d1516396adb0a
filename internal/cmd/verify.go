// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/verify"
)

func newVerifyCommand(cfg IO) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the memory limit on your slice engages",
		Long: "Verify runs the memory probe as a child process and watches " +
			"how it ends.\nIt succeeds when the probe is stopped by a memory " +
			"limit before reaching\nits full allocation target.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate own executable: %w", err)
			}

			probeCmd := &verify.Command{
				Executable: executable,
				Args:       []string{"probe"},
				Timeout:    timeout,
			}

			result, err := probeCmd.Run(cmd.Context(), cfg.Stdout, cfg.Stderr)
			if err != nil {
				return err
			}

			if !result.LimitEngaged() {
				if result.Fault != "" {
					return fmt.Errorf("%w: %s", errLimitNotEngaged, result.Fault)
				}

				return fmt.Errorf("%w: probe allocated all %d MB",
					errLimitNotEngaged, result.ProgressMB)
			}

			fmt.Fprintf(cfg.Stdout, "%s Memory limit engaged after %s (%s).\n",
				checkMark,
				emphasisStyle.Render(fmt.Sprintf("%d MB", result.ProgressMB)),
				result.Outcome)

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute,
		"maximum probe runtime")

	return cmd
}
