// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backup archives configuration before destructive admin
// operations.
//
// Uninstall and reset snapshot the policy file, the systemd drop-in
// and the allocation state into a timestamped cpio archive so a
// mistaken run can be undone by hand.
package backup
