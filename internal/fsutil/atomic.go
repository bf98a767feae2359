// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsutil provides file helpers shared across conversions.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile writes data to path through a temp file in the same directory
// and renames it into place, so readers never observe a partial file and a
// failed write leaves any existing file untouched.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return WriteFrom(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFrom is WriteFile for producers that stream their output.
func WriteFrom(path string, perm os.FileMode, write func(io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".dmc-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := write(tmpFile)
	if writeErr == nil {
		writeErr = tmpFile.Chmod(perm)
	}
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
