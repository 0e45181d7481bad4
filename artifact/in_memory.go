package artifact

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentlab/core"
)

// InMemoryStore is an in-process versioned ArtifactStore useful for tests,
// local runs and single-process prototypes. It keeps every version of every
// artifact in a map guarded by an RWMutex. Inline data is copied on save and
// retrieval to avoid accidental external mutation of internal buffers.
//
// It does not enforce retention limits, size quotas, or eviction.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[core.ArtifactKey][]core.Part // key -> versions
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[core.ArtifactKey][]core.Part)}
}

// Save appends a new version of the artifact and returns its number.
func (a *InMemoryStore) Save(_ context.Context, key core.ArtifactKey, part core.Part) (int, error) {
	if part == nil {
		return 0, fmt.Errorf("%w: nil", ErrUnsupportedPart)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.artifacts[key] = append(a.artifacts[key], copyPart(part))

	return len(a.artifacts[key]) - 1, nil
}

// Load returns a copy of the requested version, or the newest for core.LatestVersion.
func (a *InMemoryStore) Load(_ context.Context, key core.ArtifactKey, version int) (core.Part, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	versions, ok := a.artifacts[key]
	if !ok || len(versions) == 0 {
		return nil, ErrNotFound
	}

	if version == core.LatestVersion {
		version = len(versions) - 1
	}
	if version < 0 || version >= len(versions) {
		return nil, fmt.Errorf("version %d: %w", version, ErrNotFound)
	}

	return copyPart(versions[version]), nil
}

// ListVersions returns the stored version numbers in ascending order.
func (a *InMemoryStore) ListVersions(_ context.Context, key core.ArtifactKey) ([]int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	versions := a.artifacts[key]
	out := make([]int, len(versions))
	for i := range versions {
		out[i] = i
	}

	return out, nil
}

// Delete removes every version of the artifact or returns ErrNotFound.
func (a *InMemoryStore) Delete(_ context.Context, key core.ArtifactKey) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.artifacts[key]; !ok {
		return ErrNotFound
	}
	delete(a.artifacts, key)

	return nil
}

func copyPart(p core.Part) core.Part {
	if v, ok := p.(core.InlineDataPart); ok {
		v.Data = append([]byte(nil), v.Data...)
		return v
	}
	return p
}
