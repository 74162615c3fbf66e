// Package fsutil holds filesystem helpers shared by the writers.
package fsutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
)

// IsOS reports whether fsys is backed by the real operating system
// filesystem.
func IsOS(fsys afero.Fs) bool {
	_, ok := fsys.(*afero.OsFs)
	return ok
}

// WriteFile creates the parent directory of path and writes data. On the OS
// filesystem the write goes through a temporary file and a rename, so
// readers never see a partially written file.
func WriteFile(fsys afero.Fs, path string, data []byte) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if IsOS(fsys) {
		if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		// atomic.WriteFile keeps the temp file's 0600 mode on new files.
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("setting mode on %s: %w", path, err)
		}
		return nil
	}

	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
