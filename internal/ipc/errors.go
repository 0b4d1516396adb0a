// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ipc

import "errors"

// ErrUnavailable is returned by [Client.Do] if the daemon socket does
// not accept connections. Callers may fall back to driving systemd
// directly.
var ErrUnavailable = errors.New("daemon unavailable")

// RemoteError is an error the daemon reported in a [Response].
type RemoteError struct {
	Message string
}

// Error implements the [error] interface.
func (e *RemoteError) Error() string {
	return e.Message
}
