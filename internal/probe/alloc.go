// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

// AllocFunc allocates a block of the given size in bytes and commits it to
// memory. It returns [ErrExhausted] if the allocation failed because the
// memory ceiling was reached.
type AllocFunc func(size int) ([]byte, error)

// FreeFunc releases a block obtained from the matching [AllocFunc].
type FreeFunc func(block []byte) error

// allocBlock allocates an anonymous private mapping and touches each page so
// the memory is charged to the process immediately.
//
// The blocks deliberately bypass the Go heap. A failed heap allocation is an
// unrecoverable runtime fatal, while a failed mmap is an ordinary error the
// loop can catch and report.
func allocBlock(size int) ([]byte, error) {
	block, err := unix.Mmap(
		-1,
		0,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
	)
	if err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return nil, fmt.Errorf("mmap %d bytes: %w", size, ErrExhausted)
		}

		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}

	for idx := 0; idx < len(block); idx += pageSize {
		block[idx] = 0
	}

	return block, nil
}

// freeBlock unmaps a block obtained from [allocBlock].
func freeBlock(block []byte) error {
	err := unix.Munmap(block)
	if err != nil {
		return fmt.Errorf("munmap: %w", err)
	}

	return nil
}
