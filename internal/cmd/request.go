// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func newRequestCommand(cfg IO) *cobra.Command {
	var (
		cpu    uint32
		mem    string
		all    bool
		socket string
	)

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request CPU and memory for your user slice",
		Long: "Request CPU cores and memory from the shared pool. The " +
			"limits are applied\nto your user slice and stay in effect " +
			"until released.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()

			if all && (flags.Changed("cpu") || flags.Changed("mem")) {
				return usageErrorf("--all cannot be combined with --cpu or --mem")
			}

			if !all && (!flags.Changed("cpu") || !flags.Changed("mem")) {
				return usageErrorf("either --all or both --cpu and --mem are required")
			}

			var memGB uint32
			if !all {
				memGB = uint32(math.Floor(sysinfo.ParseMemoryGB(mem)))
				if memGB == 0 {
					return usageErrorf("invalid memory amount %q", mem)
				}
			}

			uid, err := systemd.CallingUID()
			if err != nil {
				return err
			}

			if err := systemd.ValidateUID(uid); err != nil {
				return err
			}

			if all {
				return requestAllResources(cmd.Context(), cfg, socket, uid)
			}

			return requestResources(cmd.Context(), cfg, socket, uid, cpu, memGB)
		},
	}

	cmd.Flags().Uint32Var(&cpu, "cpu", 0, "number of CPU cores")
	cmd.Flags().StringVar(&mem, "mem", "",
		"memory amount in gigabytes, e.g. 16 or 16G")
	cmd.Flags().BoolVar(&all, "all", false,
		"request everything that is still available")
	cmd.Flags().StringVar(&socket, "socket", ipc.DefaultSocketPath,
		"path of the daemon socket")

	return cmd
}

// requestResources asks the daemon for the allocation and falls back
// to applying it directly when no daemon is running.
func requestResources(
	ctx context.Context, cfg IO, socket string, uid, cpu, memGB uint32,
) error {
	client := ipc.NewClient(socket)

	resp, err := client.Do(ctx, ipc.NewResourceRequest(cpu, fmt.Sprintf("%dG", memGB)))
	if errors.Is(err, ipc.ErrUnavailable) {
		slog.Debug("Daemon unavailable, applying limits directly",
			slog.Any("error", err))

		manager, err := newManager(policy.DefaultPath)
		if err != nil {
			return err
		}

		grant, err := manager.Request(ctx, uid, cpu, memGB)
		if err != nil {
			return err
		}

		printGrant(cfg.Stdout, grant.CPUs, grant.MemoryGB)

		return nil
	}

	if err != nil {
		return err
	}

	if err := resp.Err(); err != nil {
		return err
	}

	printGrant(cfg.Stdout, cpu, memGB)

	return nil
}

// requestAllResources sizes the request to everything that is still
// available before going through the regular request path.
func requestAllResources(
	ctx context.Context, cfg IO, socket string, uid uint32,
) error {
	manager, err := newManager(policy.DefaultPath)
	if err != nil {
		return err
	}

	cpu, memGB, err := manager.AvailableFor(ctx, uid)
	if err != nil {
		return err
	}

	return requestResources(ctx, cfg, socket, uid, cpu, memGB)
}

func printGrant(w io.Writer, cpu, memGB uint32) {
	fmt.Fprintf(w, "%s Allocated %s and %s.\n",
		checkMark,
		emphasisStyle.Render(fmt.Sprintf("%d CPU(s)", cpu)),
		emphasisStyle.Render(fmt.Sprintf("%dG RAM", memGB)))
}
