// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ipc carries allocation requests between the CLI and the
// daemon over a Unix domain socket.
//
// Each connection is a single exchange. The client writes one JSON
// request line and reads back one JSON response line. The daemon
// authenticates callers with SO_PEERCRED, so requests never carry the
// caller identity themselves. Requests are tagged with a random ID
// that the server echoes back, which ties client and daemon logs
// together.
package ipc
