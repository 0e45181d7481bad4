package core

import "context"

// ArtifactRef points at one persisted version of a materialized context item.
type ArtifactRef struct {
	Filename     string          `json:"filename"`
	Version      int             `json:"version"`
	OriginalName string          `json:"originalName"`
	Type         ContextItemType `json:"type"`
}

// ArtifactKey scopes an artifact to an application, an execution identity
// and a conversation.
type ArtifactKey struct {
	App       string
	UserID    string
	SessionID string
	Filename  string
}

// LatestVersion asks Load for the newest version.
const LatestVersion = -1

// ArtifactStore persists versioned artifacts. Every Save creates a new
// version starting at 0. Implementations must be safe for concurrent use.
type ArtifactStore interface {
	Save(ctx context.Context, key ArtifactKey, part Part) (int, error)
	Load(ctx context.Context, key ArtifactKey, version int) (Part, error)
	ListVersions(ctx context.Context, key ArtifactKey) ([]int, error)
	Delete(ctx context.Context, key ArtifactKey) error
}
