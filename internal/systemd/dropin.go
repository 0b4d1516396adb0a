// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package systemd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/WilliamJudge94/fairshare/internal/sysinfo"
)

const (
	// DefaultsDropInDir is the drop-in directory that applies to every
	// user slice.
	DefaultsDropInDir = "/etc/systemd/system/user-.slice.d"

	// DefaultsDropInFile is the name of the drop-in carrying the global
	// default limits.
	DefaultsDropInFile = "00-defaults.conf"
)

// WriteDefaultsDropIn writes the default limits drop-in into the given
// directory, creating the directory when needed. It returns the path of the
// written file. A daemon-reload is required for the drop-in to take effect.
func WriteDefaultsDropIn(dir string, cpu, mem uint32) (string, error) {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return "", fmt.Errorf("create drop-in dir: %w", err)
	}

	content := fmt.Sprintf(
		"[Slice]\nCPUQuota=%d%%\nMemoryMax=%d\n",
		cpu*100,
		uint64(mem)*sysinfo.BytesPerGB,
	)

	path := filepath.Join(dir, DefaultsDropInFile)

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return "", fmt.Errorf("write drop-in: %w", err)
	}

	return path, nil
}

// RemoveDefaultsDropIn removes the defaults drop-in from the given directory
// and the directory itself if it is empty afterwards. It reports whether the
// drop-in existed.
func RemoveDefaultsDropIn(dir string) (bool, error) {
	path := filepath.Join(dir, DefaultsDropInFile)

	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("remove drop-in: %w", err)
	}

	// Leave the directory in place if something else lives in it.
	_ = os.Remove(dir)

	return true, nil
}
