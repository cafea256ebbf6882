package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// RotatingFileWriter appends to a log file and rotates it by size: the full
// file becomes path.1, path.1 becomes path.2, and so on up to maxFiles
// backups. With maxFiles 0 the file is truncated instead. Safe for
// concurrent use.
type RotatingFileWriter struct {
	path     string
	limit    int64
	maxFiles int

	mu   sync.Mutex
	f    *os.File
	size int64
}

// NewRotatingFileWriter opens path for appending, creating its directory.
// maxSizeMB is at least 1 and a negative maxFiles counts as 0.
func NewRotatingFileWriter(path string, maxSizeMB, maxFiles int) (*RotatingFileWriter, error) {
	return newRotatingFileWriter(path, int64(max(1, maxSizeMB))<<20, maxFiles)
}

func newRotatingFileWriter(path string, limit int64, maxFiles int) (*RotatingFileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	w := &RotatingFileWriter{path: path, limit: limit, maxFiles: max(0, maxFiles)}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingFileWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("logging: %w", err)
	}
	w.f, w.size = f, info.Size()
	return nil
}

// Write appends p, rotating first if p would push a non-empty file past the
// limit. A record is never split between files.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, fs.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("logging: rotate: %w", err)
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the file. Later writes fail with fs.ErrClosed.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingFileWriter) backup(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// rotate shifts the backups up by one and reopens an empty file. w.mu must
// be held.
func (w *RotatingFileWriter) rotate() error {
	if err := w.f.Close(); err != nil {
		return err
	}
	w.f = nil

	if w.maxFiles == 0 {
		if err := os.Truncate(w.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return w.open()
	}

	// Anything numbered maxFiles or above drops off the end.
	for n := w.maxFiles; ; n++ {
		if err := os.Remove(w.backup(n)); errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	for n := w.maxFiles - 1; n >= 1; n-- {
		if err := os.Rename(w.backup(n), w.backup(n+1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(w.path, w.backup(1)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return w.open()
}
