// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysinfo reads the machine's total resources and provides the
// availability math for admission decisions. All memory accounting uses
// decimal gigabytes (1 GB = 1e9 bytes), matching systemd's MemoryMax
// interpretation of plain byte values.
package sysinfo
