// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package state persists granted allocations in a JSON file.
//
// The file maps user IDs to the allocation granted to that user, along
// with the username and grant timestamp for display purposes. systemd
// remains the source of truth for the limits actually in effect; the
// state file only enriches them.
//
// Concurrent readers and writers are coordinated with flock(2), so
// multiple processes may share the file safely.
package state
