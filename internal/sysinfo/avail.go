// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sysinfo

// Usage is an amount of resources, used for allocation sums, reserves and
// requests alike.
type Usage struct {
	// CPUs in cores. Fractions occur when quotas are summed.
	CPUs float64

	// MemoryGB in decimal gigabytes.
	MemoryGB float64

	// DiskGB in decimal gigabytes.
	DiskGB float64
}

// Add returns the element-wise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		CPUs:     u.CPUs + other.CPUs,
		MemoryGB: u.MemoryGB + other.MemoryGB,
		DiskGB:   u.DiskGB + other.DiskGB,
	}
}

// Sub returns the element-wise difference of u and other, floored at zero.
func (u Usage) Sub(other Usage) Usage {
	return Usage{
		CPUs:     max(u.CPUs-other.CPUs, 0),
		MemoryGB: max(u.MemoryGB-other.MemoryGB, 0),
		DiskGB:   max(u.DiskGB-other.DiskGB, 0),
	}
}

// Available returns what is left of the totals after subtracting the summed
// user allocations and the system reserve. Negative intermediate values are
// floored at zero.
func Available(totals Totals, used, reserve Usage) Usage {
	all := Usage{
		CPUs:     float64(totals.CPUs),
		MemoryGB: totals.MemoryGB,
		DiskGB:   totals.DiskGB,
	}

	return all.Sub(used).Sub(reserve)
}

// Admissible reports whether the requested amount fits into the available
// resources. used must already exclude the requester's own current
// allocation, so growing an existing allocation is judged by its delta.
func Admissible(totals Totals, used, reserve, requested Usage) bool {
	avail := Available(totals, used, reserve)

	return requested.CPUs <= avail.CPUs &&
		requested.MemoryGB <= avail.MemoryGB &&
		requested.DiskGB <= avail.DiskGB
}
