// Package nvstore persists small named state records, mimicking the
// non-volatile settings storage of an embedded device. Each record is a flat
// byte blob owned by a single component; the component defines the record
// layout and rejects blobs of unexpected size on restore.
package nvstore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// MaxNameLen denotes the maximum length of a record name
const MaxNameLen = 15

const recordSuffix = ".bin"

// Store denotes a directory-backed record store
type Store struct {
	dir string
}

// Open opens (creating if necessary) a store rooted at the given directory
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dir, err)
	}

	return &Store{dir: dir}, nil
}

// ValidName reports whether a record name is usable (non-empty and at most
// MaxNameLen characters)
func ValidName(name string) bool {
	return name != "" && len(name) <= MaxNameLen
}

// Get retrieves the record stored under name, returning false if no such
// record exists
func (s *Store) Get(name string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, false
	}

	return data, true
}

// Put stores data under name. If the stored record already matches the data
// the write is skipped (write minimization)
func (s *Store) Put(name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid record name %q", name)
	}

	if existing, ok := s.Get(name); ok && bytes.Equal(existing, data) {
		return nil
	}

	return os.WriteFile(s.path(name), data, 0644)
}

// Delete removes the record stored under name. Deleting a record that does
// not exist is a no-op
func (s *Store) Delete(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+recordSuffix)
}
