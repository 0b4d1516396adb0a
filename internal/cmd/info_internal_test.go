// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func TestRenderInfo(t *testing.T) {
	info := &fairshare.UserInfo{
		UID:      1000,
		Username: "alice",
		Limits: systemd.Allocation{
			UID:         1000,
			CPUQuota:    250,
			MemoryBytes: 4_000_000_000,
		},
		GrantedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	out := renderInfo(info)

	assert.Contains(t, out, "USER RESOURCE ALLOCATION")
	assert.Contains(t, out, "User:")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "UID:")
	assert.Contains(t, out, "1000")
	assert.Contains(t, out, "250.0% (2.50 CPUs)")
	assert.Contains(t, out, "4.00 GB")
	assert.Contains(t, out, "Granted:")
	assert.Contains(t, out, "2025-06-01T12:00:00Z")
}

func TestRenderInfoUnlimited(t *testing.T) {
	info := &fairshare.UserInfo{
		UID:      1001,
		Username: "bob",
	}

	out := renderInfo(info)

	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Not Set")
	assert.NotContains(t, out, "Granted:",
		"limits not granted through fairshare have no grant time")
}
