// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinfo

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// BytesPerGB is the decimal gigabyte used for all memory accounting.
const BytesPerGB = 1_000_000_000

// Totals holds the machine's total resources.
type Totals struct {
	// CPUs is the number of logical CPUs.
	CPUs int

	// MemoryGB is the total physical memory in decimal gigabytes.
	MemoryGB float64

	// DiskGB is the size of the configured disk partition in decimal
	// gigabytes. Zero when no partition is configured.
	DiskGB float64
}

// ReadTotals reads the machine totals. diskPartition may be empty, in which
// case no disk size is read.
func ReadTotals(diskPartition string) (Totals, error) {
	var info unix.Sysinfo_t

	err := unix.Sysinfo(&info)
	if err != nil {
		return Totals{}, fmt.Errorf("sysinfo: %w", err)
	}

	totals := Totals{
		CPUs:     runtime.NumCPU(),
		MemoryGB: float64(info.Totalram) * float64(info.Unit) / BytesPerGB,
	}

	if diskPartition != "" {
		var fs unix.Statfs_t

		err := unix.Statfs(diskPartition, &fs)
		if err != nil {
			return Totals{}, fmt.Errorf("statfs %s: %w", diskPartition, err)
		}

		totals.DiskGB = float64(fs.Blocks) * float64(fs.Bsize) / BytesPerGB
	}

	return totals, nil
}
