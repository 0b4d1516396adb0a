// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package fairshare

import "errors"

var (
	// ErrInsufficientResources is returned for requests that do not fit
	// into the resources left after reserves and other users'
	// allocations.
	ErrInsufficientResources = errors.New(
		"request exceeds available system resources",
	)

	// ErrNoResources is returned by [Manager.RequestAll] if not even the
	// smallest allocation fits.
	ErrNoResources = errors.New("no resources available to allocate")
)
