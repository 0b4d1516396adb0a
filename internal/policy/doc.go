// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy defines the admin controlled resource policy: the default
// limits every user starts with, the system reserves withheld from
// allocation, and the per-request caps. The policy lives in a TOML file
// written by admin setup and read by every admission decision.
package policy
