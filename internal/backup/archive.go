// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/cpio"
)

// DefaultDir is where archives are stored.
const DefaultDir = "/var/lib/fairshare/backups"

// ErrNoFiles is returned when none of the requested paths exist, so
// there is nothing worth archiving.
var ErrNoFiles = errors.New("no files to back up")

// Archive writes the given files into a timestamped cpio archive below
// destDir and returns the archive path. Paths that do not exist or are
// not regular files are skipped. An empty destDir selects [DefaultDir].
func Archive(paths []string, destDir string) (string, error) {
	if destDir == "" {
		destDir = DefaultDir
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := time.Now().Format("fairshare-backup-20060102-150405.cpio")
	dest := filepath.Join(destDir, name)

	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	written, err := writeArchive(file, paths)

	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close archive: %w", closeErr)
	}

	if err == nil && written == 0 {
		err = ErrNoFiles
	}

	if err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	slog.Debug("Backup written",
		slog.String("path", dest),
		slog.Int("files", written))

	return dest, nil
}

func writeArchive(w io.Writer, paths []string) (int, error) {
	writer := cpio.NewWriter(w)

	written := 0

	for _, path := range paths {
		ok, err := writeEntry(writer, path)
		if err != nil {
			return written, err
		}

		if ok {
			written++
		}
	}

	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("close: %w", err)
	}

	return written, nil
}

// writeEntry adds a single file to the archive. It reports false for
// paths that were skipped.
func writeEntry(writer *cpio.Writer, path string) (bool, error) {
	source, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return false, fmt.Errorf("read info: %w", err)
	}

	if !info.Mode().IsRegular() {
		slog.Debug("Skipping non-regular file", slog.String("path", path))
		return false, nil
	}

	header, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		return false, fmt.Errorf("create header: %w", err)
	}

	// Archive members are named relative to the filesystem root.
	header.Name = strings.TrimPrefix(filepath.Clean(path), "/")

	if err := writer.WriteHeader(header); err != nil {
		return false, fmt.Errorf("write header for %s: %w", header.Name, err)
	}

	if _, err := io.Copy(writer, source); err != nil {
		return false, fmt.Errorf("write body for %s: %w", header.Name, err)
	}

	return true, nil
}
