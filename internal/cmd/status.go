// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/policy"
)

// valueNotSet is the table cell for a limit that is not configured.
const valueNotSet = "Not Set"

func newStatusCommand(cfg IO) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system wide resource usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manager, err := newManager(policy.DefaultPath)
			if err != nil {
				return err
			}

			status, err := manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprint(cfg.Stdout, renderStatus(status))

			return nil
		},
	}
}

func renderStatus(status *fairshare.Status) string {
	var b strings.Builder

	b.WriteString(banner("SYSTEM RESOURCE OVERVIEW"))
	b.WriteString("\n\n")
	b.WriteString(renderOverview(status))
	b.WriteString("\n")

	if len(status.Allocations) > 0 {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Per-User Allocations:"))
		b.WriteString("\n\n")
		b.WriteString(renderAllocations(status.Allocations))
		b.WriteString("\n")
	}

	return b.String()
}

func renderOverview(status *fairshare.Status) string {
	rows := [][]string{{
		"Total",
		strconv.Itoa(status.Totals.CPUs),
		formatFixed(status.Totals.MemoryGB),
		formatOptional(status.Totals.DiskGB),
	}}
	rowColors := []lipgloss.Color{colorBrightWhite}

	reserve := status.Reserve
	if reserve.CPUs > 0 || reserve.MemoryGB > 0 || reserve.DiskGB > 0 {
		rows = append(rows, []string{
			"Reserved (System)",
			formatOptional(reserve.CPUs),
			formatOptional(reserve.MemoryGB),
			formatOptional(reserve.DiskGB),
		})
		rowColors = append(rowColors, colorMagenta)
	}

	rows = append(rows,
		[]string{
			"Allocated",
			formatFixed(status.Used.CPUs),
			formatFixed(status.Used.MemoryGB),
			formatOptional(status.Used.DiskGB),
		},
		[]string{
			"Available",
			formatFixed(status.Available.CPUs),
			formatFixed(status.Available.MemoryGB),
			formatOptional(status.Available.DiskGB),
		},
	)
	rowColors = append(rowColors, colorYellow, colorGreen)

	return newTable().
		Headers("Metric", "CPUs", "RAM (GB)", "Disk (GB)").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}

			return cellStyle.Foreground(rowColors[row])
		}).
		Render()
}

func renderAllocations(allocations []fairshare.UserStatus) string {
	rows := make([][]string, 0, len(allocations))

	for _, user := range allocations {
		row := []string{
			user.Username,
			strconv.FormatUint(uint64(user.UID), 10),
			valueNotSet,
			valueNotSet,
			valueNotSet,
		}

		if user.CPUQuota > 0 {
			row[2] = fmt.Sprintf("%.1f%%", user.CPUQuota)
			row[3] = formatFixed(user.CPUs)
		}

		if user.MemoryGB > 0 {
			row[4] = formatFixed(user.MemoryGB)
		}

		rows = append(rows, row)
	}

	return newTable().
		Headers("Username", "UID", "CPU Quota", "CPUs", "RAM (GB)").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCellStyle
			case col <= 1:
				return cellStyle.Foreground(colorWhite)
			case rows[row][col] == valueNotSet:
				return cellStyle.Foreground(colorGrey)
			default:
				return cellStyle.Foreground(colorYellow)
			}
		}).
		Render()
}
