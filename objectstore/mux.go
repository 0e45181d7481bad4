package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentlab/core"
)

// Compile-time interface compliance check.
var _ core.ObjectStore = (*Mux)(nil)

// Mux dispatches object operations to the store registered for the URI scheme.
type Mux struct {
	mu     sync.RWMutex
	stores map[string]core.ObjectStore
}

// NewMux creates an empty router.
func NewMux() *Mux {
	return &Mux{stores: map[string]core.ObjectStore{}}
}

// Handle registers store for scheme, replacing any previous registration.
func (m *Mux) Handle(scheme string, store core.ObjectStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[scheme] = store
}

func (m *Mux) route(uri string) (core.ObjectStore, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	store, ok := m.stores[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("no object store registered for scheme %q", u.Scheme)
	}
	return store, nil
}

// Read implements core.ObjectStore.
func (m *Mux) Read(ctx context.Context, uri string) (*core.Object, error) {
	store, err := m.route(uri)
	if err != nil {
		return nil, err
	}
	return store.Read(ctx, uri)
}

// Write implements core.ObjectStore.
func (m *Mux) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	store, err := m.route(uri)
	if err != nil {
		return err
	}
	return store.Write(ctx, uri, data, contentType)
}

// Exists implements core.ObjectStore.
func (m *Mux) Exists(ctx context.Context, uri string) (bool, error) {
	store, err := m.route(uri)
	if err != nil {
		return false, err
	}
	return store.Exists(ctx, uri)
}

// Delete implements core.ObjectStore.
func (m *Mux) Delete(ctx context.Context, uri string) error {
	store, err := m.route(uri)
	if err != nil {
		return err
	}
	return store.Delete(ctx, uri)
}

// PublicURL implements core.ObjectStore.
func (m *Mux) PublicURL(uri string) (string, error) {
	store, err := m.route(uri)
	if err != nil {
		return "", err
	}
	return store.PublicURL(uri)
}
