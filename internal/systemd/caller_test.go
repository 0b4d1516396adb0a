// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd_test

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WilliamJudge94/fairshare/internal/systemd"
)

func TestCallingUID(t *testing.T) {
	t.Run("without pkexec", func(t *testing.T) {
		// t.Setenv registers the restore even though the variable is
		// unset afterwards.
		t.Setenv("PKEXEC_UID", "")
		os.Unsetenv("PKEXEC_UID")

		uid, err := systemd.CallingUID()
		require.NoError(t, err)
		assert.Equal(t, uint32(os.Getuid()), uid)
	})

	t.Run("root refused", func(t *testing.T) {
		t.Setenv("PKEXEC_UID", "0")

		_, err := systemd.CallingUID()
		require.ErrorIs(t, err, systemd.ErrRootUser)
	})

	t.Run("system user refused", func(t *testing.T) {
		t.Setenv("PKEXEC_UID", "999")

		_, err := systemd.CallingUID()
		require.ErrorIs(t, err, systemd.ErrSystemUser)
	})

	t.Run("unknown user refused", func(t *testing.T) {
		t.Setenv("PKEXEC_UID", "4293000000")

		_, err := systemd.CallingUID()
		require.ErrorIs(t, err, systemd.ErrUnknownUser)
	})

	t.Run("garbage value", func(t *testing.T) {
		t.Setenv("PKEXEC_UID", "not-a-uid")

		_, err := systemd.CallingUID()
		require.Error(t, err)
	})

	t.Run("existing regular user", func(t *testing.T) {
		uid := os.Getuid()
		if uid < systemd.MinUserUID {
			t.Skipf("test process runs as system user %d", uid)
		}

		t.Setenv("PKEXEC_UID", strconv.Itoa(uid))

		actual, err := systemd.CallingUID()
		require.NoError(t, err)
		assert.Equal(t, uint32(uid), actual)
	})
}

func TestUsername(t *testing.T) {
	assert.Equal(t, "root", systemd.Username(0))
	assert.Equal(t, "4293000000", systemd.Username(4293000000),
		"unknown users fall back to the numeric UID")
}
