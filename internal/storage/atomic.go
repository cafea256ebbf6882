// Package storage persists notebook files.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RenameError reports that the new content was written to a temporary file
// that could not be moved into place.
type RenameError struct {
	Err      error
	tempPath string
}

func (e RenameError) Error() string { return e.Err.Error() }

// TempPath is the temporary file's path. It has been removed by the time
// AtomicWriteFile returns.
func (e RenameError) TempPath() string { return e.tempPath }

func (e RenameError) Unwrap() error { return e.Err }

// AtomicWriteFile replaces filename with data, creating parent directories.
// The data goes to a synced temporary file in the same directory which is
// then renamed over filename, so readers see the old content or the new,
// never a mix.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	name := tmp.Name()
	defer func() {
		if err == nil {
			return
		}
		if rmErr := os.Remove(name); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("storage: temporary file left behind", "path", name, "error", rmErr)
		}
	}()

	if err := writeSynced(tmp, data); err != nil {
		return fmt.Errorf("storage: write %s: %w", name, err)
	}
	if err := os.Chmod(name, perm); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := os.Rename(name, filename); err != nil {
		return RenameError{Err: err, tempPath: name}
	}
	return nil
}

// writeSynced writes data to f, flushes it to disk and closes f.
func writeSynced(f *os.File, data []byte) error {
	_, err := f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
