// Package filestore provides the path-addressed file operations used by the
// configuration engine. Two implementations are provided: OSStore for the
// real filesystem and BillyStore for any go-billy filesystem (memfs in tests).
package filestore

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	ioAttempts = 3
	ioDelay    = 20 * time.Millisecond
)

// Store is the abstract file store. Paths are absolute.
type Store interface {
	// Exists reports whether a regular file or directory exists at path
	Exists(path string) bool
	Read(path string) ([]byte, error)
	// Write replaces the file content, creating parent directories as needed
	Write(path string, data []byte) error
	Remove(path string) error
	Copy(src, dst string) error
	MkdirAll(dir string) error
	// ReadDir returns the sorted names of regular files in dir.
	// A missing directory yields no names and no error.
	ReadDir(dir string) ([]string, error)
}

// OSStore implements Store on the local filesystem. Reads and writes go
// through lockedfile so a concurrent reader never observes a torn write, and
// are retried a few times on transient errors.
type OSStore struct{}

// NewOSStore creates a store backed by the local filesystem
func NewOSStore() *OSStore {
	return &OSStore{}
}

func (s *OSStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *OSStore) Read(path string) ([]byte, error) {
	var data []byte
	err := withRetry(func() error {
		var err error
		data, err = lockedfile.Read(path)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return data, nil
}

func (s *OSStore) Write(path string, data []byte) error {
	if err := s.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	err := withRetry(func() error {
		return lockedfile.Write(path, bytes.NewReader(data), filePerm)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write file '%s'", path)
	}
	return nil
}

func (s *OSStore) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Wrapf(err, "failed to remove file '%s'", path)
	}
	return nil
}

func (s *OSStore) Copy(src, dst string) error {
	data, err := s.Read(src)
	if err != nil {
		return err
	}
	return s.Write(dst, data)
}

func (s *OSStore) MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory '%s'", dir)
	}
	return nil
}

func (s *OSStore) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read directory '%s'", dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// isTransient reports whether an I/O error is worth retrying
func isTransient(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EINTR)
}

func withRetry(op func() error) error {
	return retry.Do(op,
		retry.Attempts(ioAttempts),
		retry.Delay(ioDelay),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
}
