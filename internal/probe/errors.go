// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import "errors"

// ErrExhausted is returned by an [AllocFunc] when the allocation failed
// because the memory ceiling was reached. It selects the exhaustion branch
// of the probe output instead of the generic fault branch.
var ErrExhausted = errors.New("memory exhausted")
