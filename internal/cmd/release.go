// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func newReleaseCommand(cfg IO) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Release your allocation back to the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := systemd.CallingUID()
			if err != nil {
				return err
			}

			if err := systemd.ValidateUID(uid); err != nil {
				return err
			}

			ctx := cmd.Context()

			resp, err := ipc.NewClient(socket).Do(ctx, ipc.NewReleaseRequest())
			if errors.Is(err, ipc.ErrUnavailable) {
				slog.Debug("Daemon unavailable, reverting limits directly",
					slog.Any("error", err))

				manager, err := newManager(policy.DefaultPath)
				if err != nil {
					return err
				}

				if err := manager.Release(ctx, uid); err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else if err := resp.Err(); err != nil {
				return err
			}

			fmt.Fprintf(cfg.Stdout, "%s %s\n", checkMark,
				successStyle.Render("Released user limits back to defaults."))

			return nil
		},
	}

	cmd.Flags().StringVar(&socket, "socket", ipc.DefaultSocketPath,
		"path of the daemon socket")

	return cmd
}
