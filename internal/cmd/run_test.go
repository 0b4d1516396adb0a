// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/WilliamJudge94/fairshare/internal/cmd"
	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// execute runs the command line and returns the exit code together with
// the captured stdout and stderr.
func execute(t *testing.T, args []string, stdin string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	rc := cmd.Run(context.Background(), args, cmd.IO{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})

	return rc, stdout.String(), stderr.String()
}

// requireRegularUID skips tests that need the test process to run as a
// regular user.
func requireRegularUID(t *testing.T) uint32 {
	t.Helper()

	uid := os.Getuid()
	if uid < int(systemd.MinUserUID) {
		t.Skipf("needs a regular user, running as UID %d", uid)
	}

	return uint32(uid)
}

// startFakeDaemon serves the given handler on a socket in a temporary
// directory and returns the socket path.
func startFakeDaemon(t *testing.T, handler ipc.HandlerFunc) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "fairshared.sock")
	server := &ipc.Server{Path: socket, Handler: handler}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(ctx)
	})

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, group.Wait())
	})

	require.Eventually(t, func() bool {
		info, err := os.Stat(socket)
		return err == nil && info.Mode()&os.ModeSocket != 0
	}, time.Second, 10*time.Millisecond)

	return socket
}

func TestRunHelp(t *testing.T) {
	rc, stdout, _ := execute(t, []string{"--help"}, "")

	assert.Equal(t, 0, rc)

	subcommands := []string{
		"status", "request", "release", "info",
		"admin", "daemon", "probe", "verify",
	}
	for _, name := range subcommands {
		assert.Contains(t, stdout, name)
	}
}

func TestRunWithoutArgsShowsHelp(t *testing.T) {
	rc, stdout, _ := execute(t, nil, "")

	assert.Equal(t, 0, rc)
	assert.Contains(t, stdout, "Usage:")
}

func TestRunVersion(t *testing.T) {
	rc, stdout, _ := execute(t, []string{"--version"}, "")

	assert.Equal(t, 0, rc)
	assert.Contains(t, stdout, "fairshare version")
}

func TestRunUnknownCommand(t *testing.T) {
	rc, _, stderr := execute(t, []string{"frobnicate"}, "")

	assert.Equal(t, 2, rc)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestRunUnknownFlag(t *testing.T) {
	rc, _, stderr := execute(t, []string{"status", "--nope"}, "")

	assert.Equal(t, 2, rc)
	assert.Contains(t, stderr, "unknown flag")
}

func TestRunRequestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "NoFlags",
			args: []string{"request"},
		},
		{
			name: "OnlyCPU",
			args: []string{"request", "--cpu", "2"},
		},
		{
			name: "OnlyMem",
			args: []string{"request", "--mem", "4G"},
		},
		{
			name: "AllAndCPU",
			args: []string{"request", "--all", "--cpu", "2"},
		},
		{
			name: "UnparsableMem",
			args: []string{"request", "--cpu", "2", "--mem", "lots"},
		},
		{
			name: "ZeroMem",
			args: []string{"request", "--cpu", "2", "--mem", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, _, stderr := execute(t, tt.args, "")

			assert.Equal(t, 2, rc)
			assert.Contains(t, stderr, "--help")
		})
	}
}

func TestRunRequestRejectsRootCaller(t *testing.T) {
	t.Setenv("PKEXEC_UID", "0")

	rc, _, stderr := execute(t,
		[]string{"request", "--cpu", "1", "--mem", "1G"}, "")

	assert.Equal(t, 1, rc)
	assert.Contains(t, stderr, "root user")
}

func TestRunRequestViaDaemon(t *testing.T) {
	uid := requireRegularUID(t)

	socket := startFakeDaemon(t, func(
		_ context.Context, req ipc.Request, peer uint32,
	) ipc.Response {
		assert.Equal(t, ipc.TypeRequestResources, req.Type)
		assert.EqualValues(t, 2, req.CPU)
		assert.Equal(t, "4G", req.Mem)
		assert.Equal(t, uid, peer)

		return ipc.SuccessResponse("Allocated 2 CPU(s) and 4G RAM.")
	})

	rc, stdout, stderr := execute(t, []string{
		"request", "--cpu", "2", "--mem", "4G", "--socket", socket,
	}, "")

	assert.Equal(t, 0, rc, stderr)
	assert.Contains(t, stdout, "Allocated")
	assert.Contains(t, stdout, "2 CPU(s)")
	assert.Contains(t, stdout, "4G RAM")
}

func TestRunRequestDeniedByDaemon(t *testing.T) {
	requireRegularUID(t)

	socket := startFakeDaemon(t, func(
		_ context.Context, _ ipc.Request, _ uint32,
	) ipc.Response {
		return ipc.ErrorResponse("request exceeds available system resources")
	})

	rc, _, stderr := execute(t, []string{
		"request", "--cpu", "500", "--mem", "4G", "--socket", socket,
	}, "")

	assert.Equal(t, 1, rc)
	assert.Contains(t, stderr, "request exceeds available system resources")
}

func TestRunReleaseViaDaemon(t *testing.T) {
	requireRegularUID(t)

	socket := startFakeDaemon(t, func(
		_ context.Context, req ipc.Request, _ uint32,
	) ipc.Response {
		assert.Equal(t, ipc.TypeRelease, req.Type)

		return ipc.SuccessResponse("Released user limits back to defaults.")
	})

	rc, stdout, stderr := execute(t, []string{
		"release", "--socket", socket,
	}, "")

	assert.Equal(t, 0, rc, stderr)
	assert.Contains(t, stdout, "Released user limits back to defaults.")
}

func TestRunAdminUninstallCancelled(t *testing.T) {
	rc, stdout, stderr := execute(t, []string{"admin", "uninstall"}, "n\n")

	assert.Equal(t, 0, rc)
	assert.Contains(t, stdout, "Uninstall cancelled.")
	assert.Contains(t, stderr, "Continue?")
}

func TestRunAdminResetCancelled(t *testing.T) {
	rc, stdout, _ := execute(t, []string{"admin", "reset"}, "\n")

	assert.Equal(t, 0, rc)
	assert.Contains(t, stdout, "Reset cancelled.")
}

func TestRunDaemonServesAndStops(t *testing.T) {
	tmp := t.TempDir()
	socket := filepath.Join(tmp, "fairshared.sock")
	policyPath := filepath.Join(tmp, "policy.toml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)

	go func() {
		var stdout, stderr bytes.Buffer

		done <- cmd.Run(ctx, []string{
			"daemon", "--socket", socket, "--policy", policyPath,
		}, cmd.IO{
			Stdin:  strings.NewReader(""),
			Stdout: &stdout,
			Stderr: &stderr,
		})
	}()

	require.Eventually(t, func() bool {
		info, err := os.Stat(socket)
		return err == nil && info.Mode()&os.ModeSocket != 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case rc := <-done:
		assert.Equal(t, 0, rc)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
