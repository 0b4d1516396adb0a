// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
)

// errLimitNotEngaged is returned by verify when the probe ran to
// completion without being stopped by a memory limit.
var errLimitNotEngaged = errors.New("memory limit did not engage")

// usageError marks errors caused by an invalid invocation rather than
// by a failed operation. [Run] maps them to a distinct exit code.
type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}
