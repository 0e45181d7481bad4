package core

import "context"

// MessageStore reads chat messages.
type MessageStore interface {
	GetMessage(ctx context.Context, chatID, messageID string) (*Message, error)
	// ListMessages returns every message of a chat in no particular order.
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
}

// RunStore mutates the run state embedded in an assistant message.
//
// UpdateRun applies a partial update and must reject status regressions with
// ErrInvalidTransition. AppendOutputEvents is an atomic union-append: events
// already present are not duplicated and existing entries are never rewritten.
type RunStore interface {
	UpdateRun(ctx context.Context, chatID, messageID string, upd RunUpdate) error
	AppendOutputEvents(ctx context.Context, chatID, messageID string, events ...OutputEvent) error
}

// ParticipantStore loads participant configuration documents.
type ParticipantStore interface {
	GetAgent(ctx context.Context, agentID string) (ConfigDoc, error)
	GetModel(ctx context.Context, modelID string) (ConfigDoc, error)
}

// DocumentStore bundles the document database contracts a task relies on.
type DocumentStore interface {
	MessageStore
	RunStore
	ParticipantStore
}

// Object is the payload of an object storage entry.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore addresses blobs by URI (e.g. gs://bucket/key, s3://bucket/key).
type ObjectStore interface {
	Read(ctx context.Context, uri string) (*Object, error)
	Write(ctx context.Context, uri string, data []byte, contentType string) error
	Exists(ctx context.Context, uri string) (bool, error)
	Delete(ctx context.Context, uri string) error
	PublicURL(uri string) (string, error)
}
