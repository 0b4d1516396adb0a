// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package daemon_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilliamJudge94/fairshare/internal/daemon"
	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/policy"
	"github.com/WilliamJudge94/fairshare/internal/state"
	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

// fakeSystemd answers systemctl invocations from canned outputs. Show
// output is keyed by unit name.
type fakeSystemd struct {
	calls      [][]string
	listOutput string
	shows      map[string]string
}

func (f *fakeSystemd) run(
	_ context.Context, name string, args ...string,
) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	switch args[0] {
	case "list-units":
		return []byte(f.listOutput), nil
	case "show":
		return []byte(f.shows[args[1]]), nil
	default:
		return nil, nil
	}
}

func allowAnyUID(_ uint32) error { return nil }

func newTestManager(t *testing.T, fake *fakeSystemd) *fairshare.Manager {
	t.Helper()

	store := state.NewStore(filepath.Join(t.TempDir(), "allocations.json"))
	pol := policy.New(1, 2, 0, 0, 0, 0, "")
	totals := sysinfo.Totals{CPUs: 16, MemoryGB: 64}

	return fairshare.New(systemd.NewClient(fake.run), pol, store, totals)
}

func TestHandlerRequest(t *testing.T) {
	fake := &fakeSystemd{}
	handler := &daemon.Handler{
		Manager:     newTestManager(t, fake),
		ValidateUID: allowAnyUID,
	}

	resp := handler.Handle(
		context.Background(), ipc.NewResourceRequest(2, "4G"), 1000,
	)

	require.NoError(t, resp.Err())
	assert.Equal(t, ipc.TypeSuccess, resp.Type)
	assert.Equal(t, "Allocated 2 CPU(s) and 4G RAM.", resp.Message)

	require.NotEmpty(t, fake.calls)
	assert.Equal(t, []string{
		"systemctl", "set-property", "user-1000.slice",
		"CPUQuota=200%", "MemoryMax=4000000000",
	}, fake.calls[len(fake.calls)-1])
}

func TestHandlerRequestMemoryFormats(t *testing.T) {
	tests := []struct {
		name            string
		mem             string
		expectedMessage string
		expectedErr     string
	}{
		{
			name:            "gigabytes suffix",
			mem:             "4G",
			expectedMessage: "Allocated 1 CPU(s) and 4G RAM.",
		},
		{
			name:            "plain number",
			mem:             "4",
			expectedMessage: "Allocated 1 CPU(s) and 4G RAM.",
		},
		{
			name:            "megabytes suffix",
			mem:             "2048M",
			expectedMessage: "Allocated 1 CPU(s) and 2G RAM.",
		},
		{
			name:            "fractions are floored",
			mem:             "1.5G",
			expectedMessage: "Allocated 1 CPU(s) and 1G RAM.",
		},
		{
			name:        "zero",
			mem:         "0",
			expectedErr: `invalid memory amount: "0"`,
		},
		{
			name:        "garbage",
			mem:         "lots",
			expectedErr: `invalid memory amount: "lots"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &daemon.Handler{
				Manager:     newTestManager(t, &fakeSystemd{}),
				ValidateUID: allowAnyUID,
			}

			resp := handler.Handle(
				context.Background(), ipc.NewResourceRequest(1, tt.mem), 1000,
			)

			if tt.expectedErr != "" {
				require.Error(t, resp.Err())
				assert.Equal(t, tt.expectedErr, resp.Error)

				return
			}

			require.NoError(t, resp.Err())
			assert.Equal(t, tt.expectedMessage, resp.Message)
		})
	}
}

func TestHandlerRequestDenied(t *testing.T) {
	fake := &fakeSystemd{
		listOutput: "user-1001.slice loaded active active User Slice of UID 1001\n",
		shows: map[string]string{
			"user-1001.slice": "MemoryMax=60000000000\nCPUQuotaPerSecUSec=15s\n",
		},
	}

	handler := &daemon.Handler{
		Manager:     newTestManager(t, fake),
		ValidateUID: allowAnyUID,
	}

	resp := handler.Handle(
		context.Background(), ipc.NewResourceRequest(5, "16G"), 1000,
	)

	require.Error(t, resp.Err())
	assert.Equal(t, fairshare.ErrInsufficientResources.Error(), resp.Error)
}

func TestHandlerRelease(t *testing.T) {
	fake := &fakeSystemd{}
	handler := &daemon.Handler{
		Manager:     newTestManager(t, fake),
		ValidateUID: allowAnyUID,
	}

	resp := handler.Handle(context.Background(), ipc.NewReleaseRequest(), 1000)

	require.NoError(t, resp.Err())
	assert.Equal(t, "Released user limits back to defaults.", resp.Message)

	require.Len(t, fake.calls, 1)
	assert.Equal(t, []string{
		"systemctl", "revert", "user-1000.slice",
	}, fake.calls[0])
}

func TestHandlerStatus(t *testing.T) {
	fake := &fakeSystemd{
		shows: map[string]string{
			"user-1000.slice": "MemoryMax=4000000000\nCPUQuotaPerSecUSec=2s\n",
		},
	}

	handler := &daemon.Handler{
		Manager:     newTestManager(t, fake),
		ValidateUID: allowAnyUID,
	}

	resp := handler.Handle(context.Background(), ipc.NewStatusRequest(), 1000)

	require.NoError(t, resp.Err())
	assert.Equal(t, ipc.TypeStatusInfo, resp.Type)
	assert.EqualValues(t, 2, resp.AllocatedCPU)
	assert.Equal(t, "4G", resp.AllocatedMem)
}

func TestHandlerUnknownType(t *testing.T) {
	handler := &daemon.Handler{
		Manager:     newTestManager(t, &fakeSystemd{}),
		ValidateUID: allowAnyUID,
	}

	resp := handler.Handle(
		context.Background(), ipc.Request{Type: "bogus"}, 1000,
	)

	require.Error(t, resp.Err())
	assert.Contains(t, resp.Error, "unknown request type")
}

func TestHandlerRefusesUnmanagedUsers(t *testing.T) {
	fake := &fakeSystemd{}
	handler := &daemon.Handler{Manager: newTestManager(t, fake)}

	tests := []struct {
		name string
		uid  uint32
	}{
		{name: "root", uid: 0},
		{name: "system user", uid: 999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := handler.Handle(
				context.Background(), ipc.NewReleaseRequest(), tt.uid,
			)

			require.Error(t, resp.Err())
			assert.Empty(t, fake.calls)
		})
	}
}
