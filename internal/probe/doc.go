// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package probe implements the memory limit probe. It allocates fixed size
// blocks in a loop until the configured number of blocks is reached or the
// session's memory ceiling cuts the loop short, reporting progress on stdout
// in a line format that [ParseLine] can classify.
package probe
