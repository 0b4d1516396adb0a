// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package daemon runs the resource manager as a long lived service.
//
// The daemon serves allocation requests on the IPC socket and keeps
// the active policy in sync with the policy file on disk, so admins
// can tune reserves and caps without restarting it.
package daemon
