// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the fairshare command line interface.
//
// The command tree is built fresh for every [Run] call, so commands can
// be executed repeatedly against independent input and output streams.
package cmd
