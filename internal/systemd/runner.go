// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const commandTimeout = 10 * time.Second

// RunFunc executes a command and returns its stdout. Implementations must
// return an error for non-zero exit codes.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// execCommand is the production [RunFunc]. It returns an [ExecError] with
// the captured stderr when the command fails.
func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, stop := context.WithTimeout(ctx, commandTimeout)
	defer stop()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, &ExecError{
			Err:    err,
			Name:   name,
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}

	return stdout.Bytes(), nil
}
