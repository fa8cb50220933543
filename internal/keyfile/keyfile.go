// Package keyfile is the filesystem collaborator that supplies GPG
// public key material to the command compiler.
package keyfile

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Reader supplies the raw bytes of a key file at a root-relative path.
type Reader interface {
	ReadKey(path string) ([]byte, error)
}

// NotFoundError reports a key file that is absent or unreadable.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("key file %q not found: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Store reads key files below a root directory, caching contents so a
// batch of descriptors sharing one signing key hits the disk once.
// Safe for concurrent use; descriptors may be compiled in parallel.
type Store struct {
	root  string
	cache *lru.Cache[string, []byte]
}

// NewStore creates a Store rooted at the given directory, holding up to
// size cached key files.
func NewStore(root string, size int) (*Store, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Store{root: root, cache: cache}, nil
}

// ReadKey implements Reader.
func (s *Store) ReadKey(path string) ([]byte, error) {
	if key, ok := s.cache.Get(path); ok {
		return key, nil
	}
	key, err := os.ReadFile(filepath.Join(s.root, path))
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}
	s.cache.Add(path, key)
	return key, nil
}
