// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/backup"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/state"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// adminPaths holds the file locations the admin commands operate on.
type adminPaths struct {
	dropInDir  string
	policyPath string
	statePath  string
	backupDir  string
}

func defaultAdminPaths() adminPaths {
	return adminPaths{
		dropInDir:  systemd.DefaultsDropInDir,
		policyPath: policy.DefaultPath,
		statePath:  state.DefaultPath,
		backupDir:  backup.DefaultDir,
	}
}

func (p adminPaths) dropInPath() string {
	return filepath.Join(p.dropInDir, systemd.DefaultsDropInFile)
}

func newAdminCommand(cfg IO) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer the global fairshare configuration",
	}

	cmd.AddCommand(
		newAdminSetupCommand(cfg),
		newAdminUninstallCommand(cfg),
		newAdminResetCommand(cfg),
	)

	return cmd
}

func newAdminSetupCommand(cfg IO) *cobra.Command {
	var cpu, mem, cpuReserve, memReserve uint32

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Install the global default limits and the resource policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pol := policy.New(cpu, mem, 0, cpuReserve, memReserve, 0, "")

			return adminSetup(cmd.Context(), cfg, defaultAdminPaths(),
				systemd.NewClient(nil), pol)
		},
	}

	cmd.Flags().Uint32Var(&cpu, "cpu", 1,
		"default CPU cores per user")
	cmd.Flags().Uint32Var(&mem, "mem", 2,
		"default memory per user in gigabytes")
	cmd.Flags().Uint32Var(&cpuReserve, "cpu-reserve", 2,
		"CPU cores reserved for the system")
	cmd.Flags().Uint32Var(&memReserve, "mem-reserve", 4,
		"memory reserved for the system in gigabytes")

	return cmd
}

func newAdminUninstallCommand(cfg IO) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the global defaults and revert all allocations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := defaultAdminPaths()

			if !force && !confirmUninstall(cfg, paths) {
				fmt.Fprintf(cfg.Stdout, "%s Uninstall cancelled.\n", crossMark)
				return nil
			}

			err := adminUninstall(cmd.Context(), cfg, paths,
				systemd.NewClient(nil))
			if err != nil {
				return err
			}

			fmt.Fprintf(cfg.Stdout, "%s %s\n", checkMark, successStyle.Render(
				"Global defaults uninstalled. System reverted to standard resource limits."))

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"skip the confirmation prompt")

	return cmd
}

func newAdminResetCommand(cfg IO) *cobra.Command {
	var (
		cpu, mem, cpuReserve, memReserve uint32
		force                            bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Uninstall and set up again with new defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := defaultAdminPaths()
			client := systemd.NewClient(nil)

			if !force && !confirmUninstall(cfg, paths) {
				fmt.Fprintf(cfg.Stdout, "%s Reset cancelled.\n", crossMark)
				return nil
			}

			ctx := cmd.Context()

			fmt.Fprintf(cfg.Stdout, "%s Step 1/2: Uninstalling existing configuration...\n",
				stepMark)

			if err := adminUninstall(ctx, cfg, paths, client); err != nil {
				return err
			}

			fmt.Fprintf(cfg.Stdout, "\n%s Step 2/2: Setting up new defaults...\n",
				stepMark)

			pol := policy.New(cpu, mem, 0, cpuReserve, memReserve, 0, "")
			if err := adminSetup(ctx, cfg, paths, client, pol); err != nil {
				return err
			}

			fmt.Fprintf(cfg.Stdout, "\n%s New defaults: %s %s\n",
				checkMark,
				emphasisStyle.Render(fmt.Sprintf("CPUQuota=%d%%", cpu*100)),
				emphasisStyle.Render(fmt.Sprintf("MemoryMax=%dG", mem)))

			return nil
		},
	}

	cmd.Flags().Uint32Var(&cpu, "cpu", 1,
		"default CPU cores per user")
	cmd.Flags().Uint32Var(&mem, "mem", 2,
		"default memory per user in gigabytes")
	cmd.Flags().Uint32Var(&cpuReserve, "cpu-reserve", 2,
		"CPU cores reserved for the system")
	cmd.Flags().Uint32Var(&memReserve, "mem-reserve", 4,
		"memory reserved for the system in gigabytes")
	cmd.Flags().BoolVar(&force, "force", false,
		"skip the confirmation prompt")

	return cmd
}

// confirmUninstall prompts on stderr and reports whether the user
// confirmed.
func confirmUninstall(cfg IO, paths adminPaths) bool {
	fmt.Fprintf(cfg.Stderr, "%s This will remove all fairshare admin configuration!\n",
		warnMark)
	fmt.Fprintln(cfg.Stderr, "  Files to be removed:")
	fmt.Fprintf(cfg.Stderr, "    - %s\n", paths.dropInPath())
	fmt.Fprintf(cfg.Stderr, "    - %s\n", paths.policyPath)
	fmt.Fprintf(cfg.Stderr, "    - %s\n", paths.statePath)
	fmt.Fprintf(cfg.Stderr, "\n%s [y/N]: ", labelStyle.Render("Continue?"))

	scanner := bufio.NewScanner(cfg.Stdin)
	if !scanner.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))

	return answer == "y" || answer == "yes"
}

// adminSetup installs the defaults drop-in and the resource policy.
func adminSetup(
	ctx context.Context,
	cfg IO,
	paths adminPaths,
	client *systemd.Client,
	pol *policy.Policy,
) error {
	if err := pol.Validate(); err != nil {
		return err
	}

	if _, err := exec.LookPath("pkexec"); err != nil {
		fmt.Fprintf(cfg.Stderr,
			"%s pkexec not found, resource requests will need root privileges\n",
			warnMark)
	}

	dropInPath, err := systemd.WriteDefaultsDropIn(
		paths.dropInDir, pol.Defaults.CPU, pol.Defaults.Mem)
	if err != nil {
		return fmt.Errorf("write defaults drop-in: %w", err)
	}

	fmt.Fprintf(cfg.Stdout, "%s Created %s\n", checkMark, dropInPath)

	if err := client.DaemonReload(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cfg.Stdout, "%s Reloaded systemd daemon\n", checkMark)

	if err := pol.Write(paths.policyPath); err != nil {
		return err
	}

	fmt.Fprintf(cfg.Stdout, "%s Created %s\n", checkMark, paths.policyPath)

	fmt.Fprintf(cfg.Stdout, "%s Global defaults applied: %s %s (Reserves: %d CPUs, %dG RAM)\n",
		checkMark,
		emphasisStyle.Render(fmt.Sprintf("CPUQuota=%d%%", pol.Defaults.CPU*100)),
		emphasisStyle.Render(fmt.Sprintf("MemoryMax=%dG", pol.Defaults.Mem)),
		pol.Defaults.CPUReserve,
		pol.Defaults.MemReserve)

	return nil
}

// adminUninstall reverts all user allocations and removes the installed
// configuration. The configuration is archived before anything is
// deleted.
func adminUninstall(
	ctx context.Context,
	cfg IO,
	paths adminPaths,
	client *systemd.Client,
) error {
	files := []string{paths.dropInPath(), paths.policyPath, paths.statePath}

	archivePath, err := backup.Archive(files, paths.backupDir)
	switch {
	case errors.Is(err, backup.ErrNoFiles):
		// Nothing installed, nothing to preserve.
	case err != nil:
		return fmt.Errorf("back up configuration: %w", err)
	default:
		fmt.Fprintf(cfg.Stdout, "%s Backed up configuration to %s\n",
			checkMark, archivePath)
	}

	revertAllocations(ctx, cfg, client)

	removed, err := systemd.RemoveDefaultsDropIn(paths.dropInDir)
	if err != nil {
		return err
	}

	printRemoval(cfg, paths.dropInPath(), removed)

	if err := removeConfigFile(cfg, paths.policyPath); err != nil {
		return err
	}

	// The policy directory stays if something else lives in it.
	if err := os.Remove(filepath.Dir(paths.policyPath)); err == nil {
		fmt.Fprintf(cfg.Stdout, "%s Removed %s\n",
			checkMark, filepath.Dir(paths.policyPath))
	}

	if err := removeConfigFile(cfg, paths.statePath); err != nil {
		return err
	}

	if err := client.DaemonReload(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cfg.Stdout, "%s Reloaded systemd daemon\n", checkMark)

	return nil
}

// revertAllocations reverts every user slice. Failures are reported but
// do not stop the uninstall.
func revertAllocations(ctx context.Context, cfg IO, client *systemd.Client) {
	allocations, err := client.ListAllocations(ctx)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "%s Could not query user allocations: %v\n",
			warnMark, err)

		return
	}

	if len(allocations) == 0 {
		return
	}

	fmt.Fprintf(cfg.Stdout, "%s\n", headingStyle.Render("Reverting user allocations:"))

	for _, alloc := range allocations {
		username := systemd.Username(alloc.UID)

		if err := client.Revert(ctx, alloc.UID); err != nil {
			fmt.Fprintf(cfg.Stderr, "%s Failed to revert limits for user %s (UID %d): %v\n",
				warnMark, username, alloc.UID, err)

			continue
		}

		fmt.Fprintf(cfg.Stdout, "%s Reverted limits for user %s (UID %d)\n",
			checkMark, emphasisStyle.Render(username), alloc.UID)
	}
}

func removeConfigFile(cfg IO, path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(cfg.Stdout, "%s %s (not found)\n", stepMark, path)
		return nil
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(cfg.Stdout, "%s Removed %s\n", checkMark, path)

	return nil
}

func printRemoval(cfg IO, path string, removed bool) {
	if removed {
		fmt.Fprintf(cfg.Stdout, "%s Removed %s\n", checkMark, path)
	} else {
		fmt.Fprintf(cfg.Stdout, "%s %s (not found)\n", stepMark, path)
	}
}
