package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RotatingWriter is an io.Writer with size-based rotation. Rotated
// files carry numeric suffixes, newest first: searchsync.log.1 is the
// previous file, higher numbers are older.
type RotatingWriter struct {
	path     string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	written int64
}

// NewRotatingWriter opens the log file at path, creating parent
// directories as needed. maxSizeMB caps the file size before rotation;
// maxFiles caps how many rotated files survive.
func NewRotatingWriter(path string, maxSizeMB, maxFiles int) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends to the log file, rotating first when the write would
// push the file past its size cap. A failed rotation is reported on
// stderr and writing continues into the oversized file; losing logs is
// worse than exceeding the cap.
func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err = w.file.Write(p)
	w.written += int64(n)
	return n, err
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

// rotate shifts searchsync.log -> .1 -> .2 and so on, dropping files
// numbered at or beyond maxFiles, then starts a fresh file.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.file = nil
	}

	numbered, err := w.rotatedFiles()
	if err != nil {
		return err
	}

	// Highest numbers first so renames never clobber a younger file.
	sort.Sort(sort.Reverse(sort.IntSlice(numbered)))
	for _, num := range numbered {
		old := fmt.Sprintf("%s.%d", w.path, num)
		if num >= w.maxFiles {
			_ = os.Remove(old)
			continue
		}
		_ = os.Rename(old, fmt.Sprintf("%s.%d", w.path, num+1))
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	w.written = 0
	return w.open()
}

// rotatedFiles lists the numeric suffixes currently in use.
func (w *RotatingWriter) rotatedFiles() ([]int, error) {
	matches, err := filepath.Glob(w.path + ".*")
	if err != nil {
		return nil, fmt.Errorf("failed to find rotated files: %w", err)
	}

	var numbered []int
	prefix := filepath.Base(w.path) + "."
	for _, m := range matches {
		suffix := strings.TrimPrefix(filepath.Base(m), prefix)
		num, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		numbered = append(numbered, num)
	}
	return numbered, nil
}
