// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/WilliamJudge94/fairshare/internal/probe"
)

// Command runs the probe executable as a child process.
type Command struct {
	// Executable is the binary to run, usually the running binary itself.
	Executable string

	// Args are the arguments for the executable, usually the probe
	// subcommand.
	Args []string

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration

	// TargetMB is the cumulative megabyte report expected when no limit
	// engages. Zero means the default probe dimensions.
	TargetMB int
}

// Run starts the probe child and classifies its outcome.
//
// The child's stdout is parsed line by line while being echoed to the given
// stdout writer, stderr is passed through. Run returns an error only when the
// probe could not be run or observed at all. A probe that was stopped by the
// memory limit is a regular [Result], not an error.
func (c *Command) Run(
	ctx context.Context,
	stdout, stderr io.Writer,
) (*Result, error) {
	targetMB := c.TargetMB
	if targetMB == 0 {
		targetMB = probe.DefaultBlockCount * probe.StepMB
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Executable, c.Args...)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start probe: %w", err)
	}

	slog.Debug("Started probe process",
		slog.String("executable", c.Executable),
		slog.Int("pid", cmd.Process.Pid))

	parser := &outputParser{}

	pumps := errgroup.Group{}
	pumps.Go(func() error {
		return parser.consumeOutput(outPipe, stdout)
	})
	pumps.Go(func() error {
		_, err := io.Copy(stderr, errPipe)
		if err != nil {
			return fmt.Errorf("copy stderr: %w", err)
		}

		return nil
	})

	// The pipes are closed by Wait, so the pumps must drain first.
	pumpErr := pumps.Wait()

	exit, waitErr := analyzeWait(ctx, cmd.Wait())
	if waitErr != nil {
		return nil, waitErr
	}

	if pumpErr != nil {
		return nil, pumpErr
	}

	result := parser.result(targetMB, exit)

	slog.Debug("Probe process ended",
		slog.String("outcome", result.Outcome.String()),
		slog.Int("progress_mb", result.ProgressMB),
		slog.Int("exit_code", exit.code))

	return result, nil
}

// analyzeWait maps the error from [exec.Cmd.Wait] to an [exitStatus].
//
// A SIGKILL death is a regular probe outcome here, not a run failure, since
// that is how the kernel OOM killer ends a process over its cgroup cap.
func analyzeWait(ctx context.Context, err error) (exitStatus, error) {
	if err == nil {
		return exitStatus{}, nil
	}

	if ctx.Err() != nil {
		return exitStatus{timedOut: true}, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return exitStatus{}, fmt.Errorf("wait for probe: %w", err)
	}

	status := exitStatus{code: exitErr.ExitCode()}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		status.killed = ws.Signaled() && ws.Signal() == unix.SIGKILL
	}

	return status, nil
}
