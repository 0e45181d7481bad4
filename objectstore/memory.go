package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentlab/core"
)

// Compile-time interface compliance check.
var _ core.ObjectStore = (*MemoryStore)(nil)

// MemoryStore is a thread-safe in-memory object store keyed by URI.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]core.Object
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string]core.Object{}}
}

// Read returns a copy of the object.
func (s *MemoryStore) Read(_ context.Context, uri string) (*core.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[uri]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", uri, core.ErrNotFound)
	}

	return &core.Object{Data: append([]byte(nil), obj.Data...), ContentType: obj.ContentType}, nil
}

// Write stores a copy of data.
func (s *MemoryStore) Write(_ context.Context, uri string, data []byte, contentType string) error {
	if _, err := ParseURI(uri); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[uri] = core.Object{Data: append([]byte(nil), data...), ContentType: contentType}

	return nil
}

// Exists reports whether an object is stored under uri.
func (s *MemoryStore) Exists(_ context.Context, uri string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[uri]

	return ok, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *MemoryStore) Delete(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, uri)

	return nil
}

// PublicURL returns a memory:// URL that is only meaningful in process.
func (s *MemoryStore) PublicURL(uri string) (string, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return "", err
	}
	return "memory://" + u.Bucket + "/" + u.Key, nil
}
