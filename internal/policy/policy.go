// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
)

// DefaultPath is the policy file location.
const DefaultPath = "/etc/fairshare/policy.toml"

// Request bounds. CPU is in cores, memory in decimal gigabytes.
const (
	MinCPU uint32 = 1
	MaxCPU uint32 = 1000
	MinMem uint32 = 1
	MaxMem uint32 = 10000
)

// capFactor relates a default limit to its derived per-request cap.
const capFactor = 10

var (
	// ErrCPUOutOfRange is returned for CPU values outside [MinCPU, MaxCPU].
	ErrCPUOutOfRange = fmt.Errorf("cpu must be between %d and %d", MinCPU, MaxCPU)

	// ErrMemOutOfRange is returned for memory values outside [MinMem, MaxMem].
	ErrMemOutOfRange = fmt.Errorf("mem must be between %d and %d", MinMem, MaxMem)
)

// Policy is the admin controlled resource policy.
type Policy struct {
	Defaults Defaults `toml:"defaults"`
	MaxCaps  Caps     `toml:"max_caps"`
}

// Defaults holds the baseline limits and the system reserves.
type Defaults struct {
	CPU           uint32 `toml:"cpu"`
	Mem           uint32 `toml:"mem"`
	Disk          uint32 `toml:"disk"`
	CPUReserve    uint32 `toml:"cpu_reserve"`
	MemReserve    uint32 `toml:"mem_reserve"`
	DiskReserve   uint32 `toml:"disk_reserve"`
	DiskPartition string `toml:"disk_partition"`
}

// Caps holds the per-request maximums. A zero cap means uncapped.
type Caps struct {
	CPU  uint32 `toml:"cpu"`
	Mem  uint32 `toml:"mem"`
	Disk uint32 `toml:"disk"`
}

// New creates a policy from the given baseline values with derived caps.
func New(cpu, mem, disk, cpuReserve, memReserve, diskReserve uint32, diskPartition string) *Policy {
	return &Policy{
		Defaults: Defaults{
			CPU:           cpu,
			Mem:           mem,
			Disk:          disk,
			CPUReserve:    cpuReserve,
			MemReserve:    memReserve,
			DiskReserve:   diskReserve,
			DiskPartition: diskPartition,
		},
		MaxCaps: Caps{
			CPU:  cpu * capFactor,
			Mem:  mem * capFactor,
			Disk: disk * capFactor,
		},
	}
}

// Load reads the policy file. Callers that tolerate a missing policy check
// for [fs.ErrNotExist] and fall back to the zero policy, which has no
// reserves and no caps.
func Load(path string) (*Policy, error) {
	var pol Policy

	_, err := toml.DecodeFile(path, &pol)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	return &pol, nil
}

// Write writes the policy file, creating the directory when needed.
func (p *Policy) Write(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create policy dir: %w", err)
	}

	content := fmt.Sprintf(
		"[defaults]\ncpu = %d\nmem = %d\ndisk = %d\ncpu_reserve = %d\n"+
			"mem_reserve = %d\ndisk_reserve = %d\ndisk_partition = %q\n\n"+
			"[max_caps]\ncpu = %d\nmem = %d\ndisk = %d\n",
		p.Defaults.CPU, p.Defaults.Mem, p.Defaults.Disk,
		p.Defaults.CPUReserve, p.Defaults.MemReserve, p.Defaults.DiskReserve,
		p.Defaults.DiskPartition,
		p.MaxCaps.CPU, p.MaxCaps.Mem, p.MaxCaps.Disk,
	)

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("write policy: %w", err)
	}

	return nil
}

// Validate checks the baseline limits against the request bounds.
func (p *Policy) Validate() error {
	return errors.Join(
		ValidateCPU(p.Defaults.CPU),
		ValidateMem(p.Defaults.Mem),
	)
}

// Reserve returns the system reserves as a [sysinfo.Usage] amount.
func (p *Policy) Reserve() sysinfo.Usage {
	return sysinfo.Usage{
		CPUs:     float64(p.Defaults.CPUReserve),
		MemoryGB: float64(p.Defaults.MemReserve),
		DiskGB:   float64(p.Defaults.DiskReserve),
	}
}

// CheckCaps checks a request against the per-request caps. Zero caps admit
// anything.
func (p *Policy) CheckCaps(cpu, mem uint32) error {
	if p.MaxCaps.CPU != 0 && cpu > p.MaxCaps.CPU {
		return fmt.Errorf("cpu %d exceeds the policy cap of %d", cpu, p.MaxCaps.CPU)
	}

	if p.MaxCaps.Mem != 0 && mem > p.MaxCaps.Mem {
		return fmt.Errorf("mem %dG exceeds the policy cap of %dG", mem, p.MaxCaps.Mem)
	}

	return nil
}

// ValidateCPU checks a requested CPU count against the request bounds.
func ValidateCPU(cpu uint32) error {
	if cpu < MinCPU || cpu > MaxCPU {
		return fmt.Errorf("%w, got %d", ErrCPUOutOfRange, cpu)
	}

	return nil
}

// ValidateMem checks a requested memory amount against the request bounds.
func ValidateMem(mem uint32) error {
	if mem < MinMem || mem > MaxMem {
		return fmt.Errorf("%w, got %d", ErrMemOutOfRange, mem)
	}

	return nil
}
