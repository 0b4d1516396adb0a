// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func newInfoCommand(cfg IO) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show your current resource allocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uid, err := systemd.CallingUID()
			if err != nil {
				return err
			}

			if err := systemd.ValidateUID(uid); err != nil {
				return err
			}

			manager, err := newManager(policy.DefaultPath)
			if err != nil {
				return err
			}

			info, err := manager.Info(cmd.Context(), uid)
			if err != nil {
				return err
			}

			fmt.Fprint(cfg.Stdout, renderInfo(info))

			return nil
		},
	}
}

func renderInfo(info *fairshare.UserInfo) string {
	var b strings.Builder

	b.WriteString(banner("USER RESOURCE ALLOCATION"))
	b.WriteString("\n\n")

	writeInfoLine(&b, "User:", info.Username)
	writeInfoLine(&b, "UID:", strconv.FormatUint(uint64(info.UID), 10))
	b.WriteString("\n")

	cpu := unsetStyle.Render(valueNotSet)
	if info.Limits.CPUQuota > 0 {
		cpu = limitStyle.Render(fmt.Sprintf("%.1f%% (%.2f CPUs)",
			info.Limits.CPUQuota, info.Limits.CPUs()))
	}

	mem := unsetStyle.Render(valueNotSet)
	if info.Limits.MemoryBytes > 0 {
		mem = limitStyle.Render(fmt.Sprintf("%.2f GB", info.Limits.MemoryGB()))
	}

	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("CPU Quota:"), cpu)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Memory Max:"), mem)

	if !info.GrantedAt.IsZero() {
		writeInfoLine(&b, "Granted:", info.GrantedAt.Format(time.RFC3339))
	}

	return b.String()
}

func writeInfoLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n",
		labelStyle.Render(label),
		emphasisStyle.Render(value))
}
