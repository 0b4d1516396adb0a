// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import "errors"

var (
	// ErrRootUser is returned when an operation would manage the root
	// user's slice.
	ErrRootUser = errors.New("cannot modify root user slice")

	// ErrSystemUser is returned when an operation would manage the slice of
	// a system user (UID below 1000).
	ErrSystemUser = errors.New("cannot modify system user slice")

	// ErrUnknownUser is returned when a UID does not belong to any user on
	// the system.
	ErrUnknownUser = errors.New("user does not exist")

	// ErrNotUserSlice is returned when a unit name is not a user slice.
	ErrNotUserSlice = errors.New("not a user slice unit")
)

// ExecError wraps a failed command invocation together with what the command
// printed on stderr.
type ExecError struct {
	Err    error
	Name   string
	Stderr string
}

// Error implements the [error] interface.
func (e *ExecError) Error() string {
	msg := e.Name + ": " + e.Err.Error()
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (e *ExecError) Is(other error) bool {
	_, ok := other.(*ExecError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ExecError) Unwrap() error {
	return e.Err
}
