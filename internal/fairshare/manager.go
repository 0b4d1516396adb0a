// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fairshare

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/state"
	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// Grant is an applied resource allocation.
type Grant struct {
	UID      uint32
	Username string
	CPUs     uint32
	MemoryGB uint32
}

// Manager grants, releases and reports resource allocations.
//
// The policy may be swapped at runtime, everything else is fixed at
// construction. All methods are safe for concurrent use.
type Manager struct {
	systemd *systemd.Client
	store   *state.Store
	totals  sysinfo.Totals

	mu  sync.RWMutex
	pol *policy.Policy
}

// New creates a [Manager] on top of the given collaborators.
func New(
	client *systemd.Client,
	pol *policy.Policy,
	store *state.Store,
	totals sysinfo.Totals,
) *Manager {
	return &Manager{
		systemd: client,
		store:   store,
		totals:  totals,
		pol:     pol,
	}
}

// Policy returns the currently active policy.
func (m *Manager) Policy() *policy.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.pol
}

// SetPolicy replaces the active policy. Used by the daemon when the
// policy file changes on disk.
func (m *Manager) SetPolicy(pol *policy.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pol = pol
}

// Totals returns the machine totals the manager was built with.
func (m *Manager) Totals() sysinfo.Totals {
	return m.totals
}

// Request grants cpu cores and memGB gigabytes of memory to uid. The
// request must pass the policy bounds and caps and fit into the
// resources left by reserves and other users. A user growing an
// existing allocation is charged only the net increase.
func (m *Manager) Request(
	ctx context.Context, uid uint32, cpu, memGB uint32,
) (Grant, error) {
	pol := m.Policy()

	if err := policy.ValidateCPU(cpu); err != nil {
		return Grant{}, err
	}

	if err := policy.ValidateMem(memGB); err != nil {
		return Grant{}, err
	}

	if err := pol.CheckCaps(cpu, memGB); err != nil {
		return Grant{}, err
	}

	used, err := m.usedExcluding(ctx, uid)
	if err != nil {
		return Grant{}, err
	}

	requested := sysinfo.Usage{CPUs: float64(cpu), MemoryGB: float64(memGB)}
	if !sysinfo.Admissible(m.totals, used, pol.Reserve(), requested) {
		return Grant{}, ErrInsufficientResources
	}

	return m.grant(ctx, uid, cpu, memGB)
}

// AvailableFor returns the largest request uid could currently be
// granted, bounded by the request bounds and the policy caps. It
// returns [ErrNoResources] when either resource is below its minimum
// request bound.
func (m *Manager) AvailableFor(
	ctx context.Context, uid uint32,
) (cpu, memGB uint32, err error) {
	pol := m.Policy()

	used, err := m.usedExcluding(ctx, uid)
	if err != nil {
		return 0, 0, err
	}

	avail := sysinfo.Available(m.totals, used, pol.Reserve())

	cpu = min(uint32(math.Floor(avail.CPUs)), policy.MaxCPU)
	memGB = min(uint32(math.Floor(avail.MemoryGB)), policy.MaxMem)

	if cap := pol.MaxCaps.CPU; cap != 0 {
		cpu = min(cpu, cap)
	}

	if cap := pol.MaxCaps.Mem; cap != 0 {
		memGB = min(memGB, cap)
	}

	if cpu < policy.MinCPU || memGB < policy.MinMem {
		return 0, 0, ErrNoResources
	}

	return cpu, memGB, nil
}

// RequestAll grants everything that is still available to uid, bounded
// like [Manager.AvailableFor].
func (m *Manager) RequestAll(ctx context.Context, uid uint32) (Grant, error) {
	cpu, memGB, err := m.AvailableFor(ctx, uid)
	if err != nil {
		return Grant{}, err
	}

	return m.grant(ctx, uid, cpu, memGB)
}

// Release reverts uid's slice back to the configured defaults.
func (m *Manager) Release(ctx context.Context, uid uint32) error {
	if err := m.systemd.Revert(ctx, uid); err != nil {
		return err
	}

	if err := m.store.Remove(uid); err != nil {
		slog.Warn("Remove allocation record",
			slog.Int("uid", int(uid)),
			slog.Any("error", err))
	}

	slog.Info("Released allocation", slog.Int("uid", int(uid)))

	return nil
}

// grant applies the limits and records them. Admissibility has been
// checked by the caller.
func (m *Manager) grant(
	ctx context.Context, uid uint32, cpu, memGB uint32,
) (Grant, error) {
	if err := m.systemd.SetLimits(ctx, uid, cpu, memGB); err != nil {
		return Grant{}, err
	}

	username := systemd.Username(uid)

	if err := m.store.Set(state.NewAllocation(uid, username, cpu, memGB)); err != nil {
		slog.Warn("Record allocation",
			slog.Int("uid", int(uid)),
			slog.Any("error", err))
	}

	slog.Info("Granted allocation",
		slog.Int("uid", int(uid)),
		slog.Uint64("cpu", uint64(cpu)),
		slog.Uint64("mem_gb", uint64(memGB)))

	return Grant{
		UID:      uid,
		Username: username,
		CPUs:     cpu,
		MemoryGB: memGB,
	}, nil
}

// usedExcluding sums the current allocations of all users except uid.
func (m *Manager) usedExcluding(
	ctx context.Context, uid uint32,
) (sysinfo.Usage, error) {
	allocations, err := m.systemd.ListAllocations(ctx)
	if err != nil {
		return sysinfo.Usage{}, fmt.Errorf("list allocations: %w", err)
	}

	var used sysinfo.Usage

	for _, alloc := range allocations {
		if alloc.UID == uid {
			continue
		}

		used = used.Add(alloc.Usage())
	}

	return used, nil
}

// UserInfo is the allocation of a single user.
type UserInfo struct {
	UID      uint32
	Username string
	Limits   systemd.Allocation
	// GrantedAt is when the allocation was recorded. Zero if the limits
	// were not granted through fairshare.
	GrantedAt time.Time
}

// Info reports the current limits of uid, enriched with the recorded
// grant time if there is one.
func (m *Manager) Info(ctx context.Context, uid uint32) (*UserInfo, error) {
	limits, err := m.systemd.Show(ctx, uid)
	if err != nil {
		return nil, err
	}

	info := &UserInfo{
		UID:      uid,
		Username: systemd.Username(uid),
		Limits:   limits,
	}

	recorded, ok, err := m.store.Get(uid)
	if err != nil {
		slog.Warn("Read allocation record",
			slog.Int("uid", int(uid)),
			slog.Any("error", err))
	} else if ok {
		if stamp, err := time.Parse(time.RFC3339, recorded.Timestamp); err == nil {
			info.GrantedAt = stamp
		}
	}

	return info, nil
}
