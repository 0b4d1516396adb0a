// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Exit codes returned by [Run].
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// IO provides input and output streams for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run is the main entry point for the CLI command. It executes the
// command line given in args and returns the process exit code.
func Run(ctx context.Context, args []string, cfg IO) int {
	root := newRootCommand(cfg)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(cfg.Stderr, "%s %v\n", crossMark, err)

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(cfg.Stderr, "Run '%s --help' for usage.\n", root.Name())
		return exitUsage
	}

	return exitFailure
}

func newRootCommand(cfg IO) *cobra.Command {
	var debugLog bool

	root := &cobra.Command{
		Use:   "fairshare",
		Short: "Fair CPU and memory allocation on shared machines",
		Long: "Fairshare manages per-user CPU and memory limits on shared " +
			"Linux machines.\nUsers request resources from a common pool and " +
			"systemd enforces the granted\nlimits on their user slice.",
		Version:       version(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(cfg.Stderr, debugLog)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}

			return cmd.Help()
		},
	}

	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().BoolVar(&debugLog, "debug", false,
		"enable debug logging")

	root.AddCommand(
		newStatusCommand(cfg),
		newRequestCommand(cfg),
		newReleaseCommand(cfg),
		newInfoCommand(cfg),
		newAdminCommand(cfg),
		newDaemonCommand(cfg),
		newProbeCommand(cfg),
		newVerifyCommand(cfg),
	)

	return root
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok || buildInfo.Main.Version == "" {
		return "(devel)"
	}

	return buildInfo.Main.Version
}
