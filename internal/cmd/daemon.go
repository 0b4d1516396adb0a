// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/daemon"
	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/policy"
)

func newDaemonCommand(IO) *cobra.Command {
	var (
		socket     string
		policyPath string
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Serve allocation requests on the control socket",
		Long: "Daemon serves allocation requests over a unix socket and " +
			"keeps the resource\npolicy reloaded while it changes on disk. " +
			"It needs the privileges to modify\nuser slices.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := newManager(policyPath)
			if err != nil {
				return err
			}

			d := &daemon.Daemon{
				Manager:    manager,
				SocketPath: socket,
				PolicyPath: policyPath,
			}

			return d.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&socket, "socket", ipc.DefaultSocketPath,
		"path of the control socket")
	cmd.Flags().StringVar(&policyPath, "policy", policy.DefaultPath,
		"path of the policy file")

	return cmd
}
