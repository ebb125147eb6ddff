package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/imamik/oxide/internal/fault"
)

// Repository reads and writes named artifacts.
type Repository interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte, perm os.FileMode) error
	Exists(name string) bool
	Path(name string) string
	List() ([]string, error)
}

// FileStore is a Repository over a local directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created
// lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the on-disk path of an artifact.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Read returns the artifact contents. A missing artifact yields a
// fault.NotFound error.
func (s *FileStore) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fault.Wrap(fault.NotFound, "read artifact "+name, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Write stores an artifact with the given permissions.
func (s *FileStore) Write(name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(s.dir, DirPerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := s.Path(name)
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, perm); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the artifact is present.
func (s *FileStore) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List returns the names of all artifacts, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list output directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
