// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
)

const (
	unitPrefix = "user-"
	unitSuffix = ".slice"

	memoryMaxProperty = "MemoryMax"
	cpuQuotaProperty  = "CPUQuotaPerSecUSec"
)

// Allocation is the current resource allocation of one user slice.
type Allocation struct {
	UID uint32

	// CPUQuota in percent, 100 per full core. Zero means unlimited.
	CPUQuota float64

	// MemoryBytes is the MemoryMax value. Zero means unlimited.
	MemoryBytes uint64
}

// CPUs returns the quota as number of cores.
func (a Allocation) CPUs() float64 {
	return a.CPUQuota / 100
}

// MemoryGB returns the memory limit in decimal gigabytes.
func (a Allocation) MemoryGB() float64 {
	return float64(a.MemoryBytes) / sysinfo.BytesPerGB
}

// Usage returns the allocation as a [sysinfo.Usage] amount.
func (a Allocation) Usage() sysinfo.Usage {
	return sysinfo.Usage{CPUs: a.CPUs(), MemoryGB: a.MemoryGB()}
}

// Limited returns whether any limit is set on the slice.
func (a Allocation) Limited() bool {
	return a.CPUQuota != 0 || a.MemoryBytes != 0
}

// UnitForUID returns the slice unit name for the given user.
func UnitForUID(uid uint32) string {
	return fmt.Sprintf("%s%d%s", unitPrefix, uid, unitSuffix)
}

// UIDFromUnit extracts the UID from a user slice unit name like
// "user-1000.slice". It returns [ErrNotUserSlice] for other units.
func UIDFromUnit(unit string) (uint32, error) {
	rest, found := strings.CutPrefix(unit, unitPrefix)
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrNotUserSlice, unit)
	}

	rest, found = strings.CutSuffix(rest, unitSuffix)
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrNotUserSlice, unit)
	}

	uid, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotUserSlice, unit)
	}

	return uint32(uid), nil
}

// parseShow extracts the limits from `systemctl show` property output.
// Properties that are absent, "infinity" or unparseable count as unlimited.
func parseShow(uid uint32, out string) Allocation {
	alloc := Allocation{UID: uid}

	for _, line := range strings.Split(out, "\n") {
		if value, found := strings.CutPrefix(line, memoryMaxProperty+"="); found {
			alloc.MemoryBytes = parseMemoryMax(value)
			continue
		}

		if value, found := strings.CutPrefix(line, cpuQuotaProperty+"="); found {
			alloc.CPUQuota = parseCPUQuota(value)
		}
	}

	return alloc
}

// parseMemoryMax parses a MemoryMax property value, plain bytes.
func parseMemoryMax(value string) uint64 {
	bytes, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}

	return bytes
}

// parseCPUQuota parses a CPUQuotaPerSecUSec property value like "2s" into
// percent (1s of CPU time per second is 100%).
func parseCPUQuota(value string) float64 {
	seconds, found := strings.CutSuffix(strings.TrimSpace(value), "s")
	if !found {
		return 0
	}

	quota, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return 0
	}

	return quota * 100
}
