// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"errors"
	"io"
)

// Block and loop dimensions. A block is 25Mi zero-initialized 4 byte slots,
// so each successful iteration adds 100MB to the retained set and 50
// iterations claim about 5GB.
const (
	DefaultBlockCount = 50
	SlotsPerBlock     = 25 * 1024 * 1024
	SlotSize          = 4
	BlockSize         = SlotsPerBlock * SlotSize
	StepMB            = 100
)

// Probe is a bounded allocation loop.
//
// The zero value is not usable, use [New]. The alloc and free hooks exist for
// tests that need to fail a specific iteration without claiming real memory.
type Probe struct {
	// BlockCount is the number of blocks to attempt.
	BlockCount int

	// Alloc allocates a single block. Defaults to an anonymous mmap.
	Alloc AllocFunc

	// Free releases a single block. Defaults to munmap.
	Free FreeFunc
}

// New creates a new [Probe] with the default dimensions and allocator.
func New() *Probe {
	return &Probe{
		BlockCount: DefaultBlockCount,
		Alloc:      allocBlock,
		Free:       freeBlock,
	}
}

// Run executes the allocation loop and writes the report lines to the given
// writer.
//
// Each successful allocation appends the block to the retained set and
// reports the cumulative megabytes. The first failed allocation ends the
// loop: exhaustion is reported with [ExhaustedLine], anything else with the
// fault line. Both failure branches are part of normal operation, so Run
// returns an error only if writing a report line fails. All retained blocks
// are released before Run returns.
func (p *Probe) Run(w io.Writer) error {
	data := make([][]byte, 0, p.BlockCount)

	defer func() {
		for _, block := range data {
			_ = p.Free(block)
		}
	}()

	for i := 0; i < p.BlockCount; i++ {
		block, err := p.Alloc(BlockSize)
		if err != nil {
			if errors.Is(err, ErrExhausted) {
				return FprintExhausted(w)
			}

			return FprintFault(w, err)
		}

		data = append(data, block)

		err = FprintProgress(w, (i+1)*StepMB)
		if err != nil {
			return err
		}
	}

	return nil
}
