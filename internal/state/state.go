// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultPath is the location of the allocation state file.
const DefaultPath = "/var/lib/fairshare/allocations.json"

// Allocation is a granted resource allocation for a single user.
//
// UID is stored as a string since it doubles as the JSON object key.
type Allocation struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	CPUCores uint32 `json:"cpu_cores"`
	MemGB    uint32 `json:"mem_gb"`
	// Timestamp records when the allocation was granted, in RFC 3339.
	Timestamp string `json:"timestamp"`
}

// NewAllocation builds an [Allocation] for uid stamped with the current
// time.
func NewAllocation(uid uint32, username string, cpuCores, memGB uint32) Allocation {
	return Allocation{
		UID:       formatUID(uid),
		Username:  username,
		CPUCores:  cpuCores,
		MemGB:     memGB,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type stateFile struct {
	Allocations map[string]Allocation `json:"allocations"`
}

// Store reads and writes the allocation state file.
//
// The zero value is not usable. Use [NewStore].
type Store struct {
	path string
}

// NewStore returns a [Store] backed by the file at path. An empty path
// selects [DefaultPath].
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}

	return &Store{path: path}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads all allocations. A missing or empty file yields an empty
// map.
func (s *Store) Load() (map[string]Allocation, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Allocation{}, nil
		}

		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if err := lock(file, unix.LOCK_SH); err != nil {
		return nil, err
	}
	defer unlock(file)

	allocations, err := decode(file)
	if err != nil {
		return nil, err
	}

	return allocations, nil
}

// Get returns the allocation for uid, if any.
func (s *Store) Get(uid uint32) (Allocation, bool, error) {
	allocations, err := s.Load()
	if err != nil {
		return Allocation{}, false, err
	}

	allocation, ok := allocations[formatUID(uid)]

	return allocation, ok, nil
}

// Set records alloc, replacing any existing allocation for the same
// user. The parent directory is created if necessary.
func (s *Store) Set(alloc Allocation) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	return s.update(func(allocations map[string]Allocation) {
		allocations[alloc.UID] = alloc
	})
}

// Remove drops the allocation for uid. Removing an absent allocation
// is not an error.
func (s *Store) Remove(uid uint32) error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return s.update(func(allocations map[string]Allocation) {
		delete(allocations, formatUID(uid))
	})
}

// update applies modify to the stored allocations under an exclusive
// lock and writes the result back in place.
func (s *Store) update(modify func(map[string]Allocation)) error {
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if err := lock(file, unix.LOCK_EX); err != nil {
		return err
	}
	defer unlock(file)

	allocations, err := decode(file)
	if err != nil {
		return err
	}

	modify(allocations)

	data, err := json.MarshalIndent(stateFile{Allocations: allocations}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	return nil
}

// decode reads the allocations from an open, locked state file. Empty
// content yields an empty map.
func decode(file *os.File) (map[string]Allocation, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Allocation{}, nil
	}

	var content stateFile
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	if content.Allocations == nil {
		content.Allocations = map[string]Allocation{}
	}

	return content.Allocations, nil
}

func lock(file *os.File, how int) error {
	if err := unix.Flock(int(file.Fd()), how); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}

	return nil
}

func unlock(file *os.File) {
	_ = unix.Flock(int(file.Fd()), unix.LOCK_UN)
}

func formatUID(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}
