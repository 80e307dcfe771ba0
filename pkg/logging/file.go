package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultMaxBytes = 5 * 1024 * 1024
	DefaultBackups  = 2
)

// FileConfig describes a size-capped log file. Zero values take defaults.
type FileConfig struct {
	Path     string
	MaxBytes int64
	Backups  int
}

// File is an io.WriteCloser that writes to Path and shifts it to Path.1,
// Path.2 and so on once a write would push it past MaxBytes. The oldest
// backup beyond Backups is discarded.
type File struct {
	cfg FileConfig

	mu      sync.Mutex
	f       *os.File
	written int64
}

// OpenFile opens (or creates) the log file described by cfg.
func OpenFile(cfg FileConfig) (*File, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.Backups <= 0 {
		cfg.Backups = DefaultBackups
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lf := &File{cfg: cfg}
	if err := lf.open(); err != nil {
		return nil, err
	}
	return lf, nil
}

func (lf *File) open() error {
	f, err := os.OpenFile(lf.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	lf.f = f
	lf.written = info.Size()
	return nil
}

func (lf *File) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.f == nil {
		return 0, os.ErrClosed
	}
	if lf.written > 0 && lf.written+int64(len(p)) > lf.cfg.MaxBytes {
		if err := lf.shift(); err != nil {
			return 0, err
		}
	}

	n, err := lf.f.Write(p)
	lf.written += int64(n)
	return n, err
}

func (lf *File) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.f == nil {
		return nil
	}
	err := lf.f.Close()
	lf.f = nil
	return err
}

func (lf *File) backup(n int) string {
	return fmt.Sprintf("%s.%d", lf.cfg.Path, n)
}

// shift must be called with mu held.
func (lf *File) shift() error {
	if err := lf.f.Close(); err != nil {
		return err
	}
	lf.f = nil

	_ = os.Remove(lf.backup(lf.cfg.Backups))
	for n := lf.cfg.Backups - 1; n > 0; n-- {
		_ = os.Rename(lf.backup(n), lf.backup(n+1))
	}
	if err := os.Rename(lf.cfg.Path, lf.backup(1)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return lf.open()
}
