package filestore

import (
	"os"
	"path/filepath"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

// BillyStore implements Store on top of a billy.Filesystem
type BillyStore struct {
	fs billy.Filesystem
}

// NewBillyStore wraps fs as a Store
func NewBillyStore(fs billy.Filesystem) *BillyStore {
	return &BillyStore{fs: fs}
}

// NewMemStore returns a Store backed by an in-memory filesystem
func NewMemStore() *BillyStore {
	return NewBillyStore(memfs.New())
}

// Filesystem exposes the underlying billy filesystem
func (s *BillyStore) Filesystem() billy.Filesystem {
	return s.fs
}

func (s *BillyStore) Exists(path string) bool {
	_, err := s.fs.Stat(path)
	return err == nil
}

func (s *BillyStore) Read(path string) ([]byte, error) {
	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file '%s'", path)
	}
	return data, nil
}

func (s *BillyStore) Write(path string, data []byte) error {
	if err := s.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if err := util.WriteFile(s.fs, path, data, filePerm); err != nil {
		return errors.Wrapf(err, "failed to write file '%s'", path)
	}
	return nil
}

func (s *BillyStore) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil {
		return errors.Wrapf(err, "failed to remove file '%s'", path)
	}
	return nil
}

func (s *BillyStore) Copy(src, dst string) error {
	data, err := s.Read(src)
	if err != nil {
		return err
	}
	return s.Write(dst, data)
}

func (s *BillyStore) MkdirAll(dir string) error {
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory '%s'", dir)
	}
	return nil
}

func (s *BillyStore) ReadDir(dir string) ([]string, error) {
	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read directory '%s'", dir)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}
