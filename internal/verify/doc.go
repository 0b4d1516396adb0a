// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package verify runs the memory probe as a child process of the current
// session and classifies its outcome. It is the counterpart to package probe:
// the probe reports on stdout, verify consumes the report and decides whether
// the session's memory limit actually engaged.
package verify
