// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// ANSI terminal palette.
var (
	colorRed          = lipgloss.Color("1")
	colorGreen        = lipgloss.Color("2")
	colorYellow       = lipgloss.Color("3")
	colorMagenta      = lipgloss.Color("5")
	colorWhite        = lipgloss.Color("7")
	colorGrey         = lipgloss.Color("8")
	colorBrightYellow = lipgloss.Color("11")
	colorBrightCyan   = lipgloss.Color("14")
	colorBrightWhite  = lipgloss.Color("15")
)

var (
	checkMark = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true).
			SetString("✓")

	crossMark = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true).
			SetString("✗")

	warnMark = lipgloss.NewStyle().
			Foreground(colorBrightYellow).
			Bold(true).
			SetString("⚠")

	stepMark = lipgloss.NewStyle().
			Foreground(colorBrightCyan).
			Bold(true).
			SetString("→")
)

var (
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorBrightCyan).
			Foreground(colorBrightCyan).
			Bold(true).
			Width(39).
			Align(lipgloss.Center)

	headingStyle = lipgloss.NewStyle().
			Foreground(colorBrightCyan).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorBrightWhite).
			Bold(true)

	emphasisStyle = lipgloss.NewStyle().
			Foreground(colorBrightYellow).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	limitStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	unsetStyle = lipgloss.NewStyle().
			Foreground(colorGrey)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	headerCellStyle = cellStyle.
			Foreground(colorBrightCyan).
			Bold(true)
)

// banner renders a double bordered centered title box.
func banner(title string) string {
	return bannerStyle.Render(title)
}

// newTable returns a rounded border table with the shared header style.
func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorWhite))
}

// formatFixed renders a resource amount with two decimals.
func formatFixed(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatOptional renders like [formatFixed], with a dash for untracked
// zero amounts.
func formatOptional(v float64) string {
	if v == 0 {
		return "-"
	}

	return formatFixed(v)
}
