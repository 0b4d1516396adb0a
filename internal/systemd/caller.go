// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import (
	"fmt"
	"os"
	"os/user"
	"strconv"
)

// MinUserUID is the lowest UID of regular users. Everything below belongs to
// the system and is never managed.
const MinUserUID = 1000

// pkexecUIDEnv is set by pkexec to the UID of the invoking user when a
// command is escalated.
const pkexecUIDEnv = "PKEXEC_UID"

// CallingUID resolves the UID on whose behalf the command runs.
//
// When escalated via pkexec, the invoking user's UID is taken from the
// environment and validated: root and system users are refused and the user
// must exist. Without escalation the real UID of the process is used.
func CallingUID() (uint32, error) {
	value, set := os.LookupEnv(pkexecUIDEnv)
	if !set {
		return uint32(os.Getuid()), nil
	}

	uid64, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", pkexecUIDEnv, err)
	}

	uid := uint32(uid64)

	return uid, ValidateUID(uid)
}

// ValidateUID checks that the UID belongs to an existing regular user.
func ValidateUID(uid uint32) error {
	if uid == 0 {
		return ErrRootUser
	}

	if uid < MinUserUID {
		return fmt.Errorf("%w: %d", ErrSystemUser, uid)
	}

	_, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return fmt.Errorf("%w: %d", ErrUnknownUser, uid)
	}

	return nil
}

// Username returns the name for the UID, or the UID itself as string if the
// user cannot be resolved.
func Username(uid uint32) string {
	uidStr := strconv.FormatUint(uint64(uid), 10)

	u, err := user.LookupId(uidStr)
	if err != nil {
		return uidStr
	}

	return u.Username
}
