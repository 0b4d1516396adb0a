// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package fairshare ties the resource manager together.
//
// The [Manager] validates allocation requests against the policy
// bounds and the resources still available on the machine, applies
// granted requests to the user's systemd slice and records them in the
// state file. It serves both the CLI, which drives it directly, and
// the daemon, which exposes it on the IPC socket.
package fairshare
