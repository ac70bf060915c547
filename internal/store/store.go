// Package store provides the durable key-value blob store backing the
// credential and session data. Keys map to files under a single data
// directory; values are opaque byte blobs. Semantics mirror a browser
// origin's localStorage: overwriting writes are atomic from the caller's
// point of view, reads of missing keys fail soft.
package store

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"resumelens/internal/errors"
)

// Store is the durable key-value blob store.
type Store interface {
	// Get returns the blob for key, or ok=false if the key is absent or
	// unreadable. Get never returns an error; corrupt or missing content
	// is the caller's empty case.
	Get(key string) (value []byte, ok bool)

	// Put overwrites the blob for key in a single atomic write.
	Put(key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
}

// FileStore implements Store with one file per key under a data directory.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	cache  map[string][]byte
	logger *errors.Logger
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string, logger *errors.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, errors.NewStorageError("STORE_DIR_FAILED",
			"Cannot create data directory: "+dir, err)
	}
	return &FileStore{
		dir:    dir,
		cache:  make(map[string][]byte),
		logger: logger,
	}, nil
}

// keyPath maps a key to its backing file. Path separators in keys become
// directories so session-scoped keys like "currentUser/<token>" nest
// naturally; every other byte that is not filename-safe is escaped.
func (s *FileStore) keyPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = sanitize(p) + ".json"
	}
	// Only the last element is a file
	for i := 0; i < len(parts)-1; i++ {
		parts[i] = strings.TrimSuffix(parts[i], ".json")
	}
	return filepath.Join(append([]string{s.dir}, parts...)...)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	// A dot-only element like ".." would survive as a traversal component
	if out != "" && strings.Trim(out, ".") == "" {
		return strings.Repeat("_", len(out))
	}
	return out
}

// Get returns the blob for key, consulting the read cache first.
func (s *FileStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	if v, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()
	return data, true
}

// Put writes the blob via a temp file and rename so readers never observe
// a partial value.
func (s *FileStore) Put(key string, value []byte) error {
	path := s.keyPath(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot create directory for key: "+key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot create temp file for key: "+key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot write blob for key: "+key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot sync blob for key: "+key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot close temp file for key: "+key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError(errors.ErrCodeStoreWrite,
			"Cannot persist blob for key: "+key, err)
	}

	s.mu.Lock()
	s.cache[key] = value
	s.mu.Unlock()
	return nil
}

// Delete removes the key's backing file and cache entry.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	err := os.Remove(s.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("STORE_DELETE_FAILED",
			"Cannot delete key: "+key, err)
	}
	return nil
}

// Invalidate drops a key from the read cache so the next Get re-reads the
// backing file. Used by the blob watcher when files change on disk.
func (s *FileStore) Invalidate(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// InvalidateAll drops the whole read cache.
func (s *FileStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("Store read cache invalidated", "dir", s.dir)
	}
}

// Dir returns the data directory the store is rooted at.
func (s *FileStore) Dir() string {
	return s.dir
}
