// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package verify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/WilliamJudge94/fairshare/internal/verify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// shCommand fakes the probe with a shell snippet.
func shCommand(script string) *verify.Command {
	return &verify.Command{
		Executable: "/bin/sh",
		Args:       []string{"-c", script},
		TargetMB:   300,
		Timeout:    10 * time.Second,
	}
}

func TestCommandRun(t *testing.T) {
	tests := []struct {
		name            string
		script          string
		expectedOutcome verify.Outcome
		expectedMB      int
		limitEngaged    bool
	}{
		{
			name: "completed",
			script: `i=100; while [ $i -le 300 ]; do
				echo "Allocated ${i}MB"; i=$((i+100)); done`,
			expectedOutcome: verify.OutcomeCompleted,
			expectedMB:      300,
		},
		{
			name: "exhausted",
			script: `echo "Allocated 100MB"
				echo "MemoryError: Hit the 3GB limit!"`,
			expectedOutcome: verify.OutcomeExhausted,
			expectedMB:      100,
			limitEngaged:    true,
		},
		{
			name: "killed",
			script: `echo "Allocated 100MB"
				kill -9 $$`,
			expectedOutcome: verify.OutcomeKilled,
			expectedMB:      100,
			limitEngaged:    true,
		},
		{
			name:            "fault line",
			script:          `echo "Error: something broke"`,
			expectedOutcome: verify.OutcomeFault,
		},
		{
			name: "unexpected exit code",
			script: `echo "Allocated 100MB"
				exit 3`,
			expectedOutcome: verify.OutcomeFault,
			expectedMB:      100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			result, err := shCommand(tt.script).Run(
				context.Background(), &stdout, &stderr,
			)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedOutcome, result.Outcome,
				"outcome should be as expected")
			assert.Equal(t, tt.expectedMB, result.ProgressMB)
			assert.Equal(t, tt.limitEngaged, result.LimitEngaged())
		})
	}
}

func TestCommandRunEchoesOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cmd := shCommand(`echo "Allocated 100MB"
		echo "to stderr" >&2
		echo "MemoryError: Hit the 3GB limit!"`)

	result, err := cmd.Run(context.Background(), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, verify.OutcomeExhausted, result.Outcome)
	assert.Contains(t, stdout.String(), "Allocated 100MB\n")
	assert.Contains(t, stdout.String(), "MemoryError: Hit the 3GB limit!\n")
	assert.Equal(t, "to stderr\n", stderr.String())
}

func TestCommandRunTimeout(t *testing.T) {
	cmd := shCommand("sleep 10")
	cmd.Timeout = 50 * time.Millisecond

	var stdout, stderr bytes.Buffer

	result, err := cmd.Run(context.Background(), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, verify.OutcomeFault, result.Outcome)
	assert.Equal(t, "probe timed out", result.Fault)
}

func TestCommandRunStartError(t *testing.T) {
	cmd := &verify.Command{Executable: "/nonexistent/binary"}

	var stdout, stderr bytes.Buffer

	_, err := cmd.Run(context.Background(), &stdout, &stderr)
	require.Error(t, err)
}
