// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// fakeRunner records invocations and answers them from canned outputs keyed
// by the systemctl subcommand.
type fakeRunner struct {
	calls   [][]string
	outputs map[string]string
	err     error
}

func (f *fakeRunner) run(
	_ context.Context, name string, args ...string,
) ([]byte, error) {
	call := append([]string{name}, args...)
	f.calls = append(f.calls, call)

	if f.err != nil {
		return nil, f.err
	}

	return []byte(f.outputs[args[0]]), nil
}

func TestClientSetLimits(t *testing.T) {
	runner := &fakeRunner{}
	client := systemd.NewClient(runner.run)

	err := client.SetLimits(context.Background(), 1000, 2, 4)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"systemctl", "set-property", "user-1000.slice",
		"CPUQuota=200%", "MemoryMax=4000000000",
	}, runner.calls[0])
}

func TestClientRevert(t *testing.T) {
	runner := &fakeRunner{}
	client := systemd.NewClient(runner.run)

	err := client.Revert(context.Background(), 1000)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{
		"systemctl", "revert", "user-1000.slice",
	}, runner.calls[0])
}

func TestClientShow(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected systemd.Allocation
	}{
		{
			name:   "limits set",
			output: "MemoryMax=4000000000\nCPUQuotaPerSecUSec=2s\n",
			expected: systemd.Allocation{
				UID:         1000,
				CPUQuota:    200,
				MemoryBytes: 4_000_000_000,
			},
		},
		{
			name:     "unlimited",
			output:   "MemoryMax=infinity\nCPUQuotaPerSecUSec=infinity\n",
			expected: systemd.Allocation{UID: 1000},
		},
		{
			name:   "fractional quota",
			output: "MemoryMax=500000000\nCPUQuotaPerSecUSec=0.5s\n",
			expected: systemd.Allocation{
				UID:         1000,
				CPUQuota:    50,
				MemoryBytes: 500_000_000,
			},
		},
		{
			name:     "empty output",
			output:   "",
			expected: systemd.Allocation{UID: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{outputs: map[string]string{"show": tt.output}}
			client := systemd.NewClient(runner.run)

			actual, err := client.Show(context.Background(), 1000)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, actual)

			require.Len(t, runner.calls, 1)
			assert.Equal(t, []string{
				"systemctl", "show", "user-1000.slice",
				"-p", "MemoryMax", "-p", "CPUQuotaPerSecUSec",
			}, runner.calls[0])
		})
	}
}

func TestClientListAllocations(t *testing.T) {
	listOutput := "-.slice loaded active active Root Slice\n" +
		"system.slice loaded active active System Slice\n" +
		"user-0.slice loaded active active User Slice of UID 0\n" +
		"user-1000.slice loaded active active User Slice of UID 1000\n" +
		"user-1001.slice loaded active active User Slice of UID 1001\n" +
		"user.slice loaded active active User and Session Slice\n"

	runner := &fakeRunner{outputs: map[string]string{
		"list-units": listOutput,
		"show":       "MemoryMax=2000000000\nCPUQuotaPerSecUSec=1s\n",
	}}
	client := systemd.NewClient(runner.run)

	allocations, err := client.ListAllocations(context.Background())
	require.NoError(t, err)

	require.Len(t, allocations, 2, "root and non-user slices are skipped")
	assert.Equal(t, uint32(1000), allocations[0].UID)
	assert.Equal(t, uint32(1001), allocations[1].UID)
	assert.InDelta(t, 1.0, allocations[0].CPUs(), 1e-9)
	assert.InDelta(t, 2.0, allocations[0].MemoryGB(), 1e-9)
}

func TestClientRunError(t *testing.T) {
	runner := &fakeRunner{err: assert.AnError}
	client := systemd.NewClient(runner.run)

	err := client.SetLimits(context.Background(), 1000, 1, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	err = client.DaemonReload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClientDaemonReload(t *testing.T) {
	runner := &fakeRunner{}
	client := systemd.NewClient(runner.run)

	err := client.DaemonReload(context.Background())
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"systemctl", "daemon-reload"}, runner.calls[0])
}

func TestAllocationLimited(t *testing.T) {
	assert.False(t, systemd.Allocation{UID: 1000}.Limited())
	assert.True(t, systemd.Allocation{UID: 1000, CPUQuota: 100}.Limited())
	assert.True(t, systemd.Allocation{UID: 1000, MemoryBytes: 1}.Limited())
}
