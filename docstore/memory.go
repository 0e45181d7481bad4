package docstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/hupe1980/agentlab/core"
)

// Compile-time interface compliance check.
var _ core.DocumentStore = (*MemoryStore)(nil)

// MemoryOptions configures a MemoryStore.
type MemoryOptions struct {
	// Clock stamps completion timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// MemoryStore is a thread-safe in-memory document store.
type MemoryStore struct {
	mu     sync.RWMutex
	chats  map[string]map[string]*core.Message
	agents map[string]core.ConfigDoc
	models map[string]core.ConfigDoc
	clock  func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(optFns ...func(o *MemoryOptions)) *MemoryStore {
	opts := MemoryOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &MemoryStore{
		chats:  map[string]map[string]*core.Message{},
		agents: map[string]core.ConfigDoc{},
		models: map[string]core.ConfigDoc{},
		clock:  opts.Clock,
	}
}

// PutMessage inserts or replaces a message of a chat.
func (s *MemoryStore) PutMessage(chatID string, msg core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		chat = map[string]*core.Message{}
		s.chats[chatID] = chat
	}
	chat[msg.ID] = cloneMessage(&msg)
}

// PutAgent stores an agent configuration document.
func (s *MemoryStore) PutAgent(id string, doc core.ConfigDoc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[id] = maps.Clone(doc)
}

// PutModel stores a model configuration document.
func (s *MemoryStore) PutModel(id string, doc core.ConfigDoc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[id] = maps.Clone(doc)
}

// GetMessage returns a copy of the message.
func (s *MemoryStore) GetMessage(_ context.Context, chatID, messageID string) (*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.chats[chatID][messageID]
	if !ok {
		return nil, &core.NotFoundError{Kind: "message", ID: messageID}
	}
	return cloneMessage(msg), nil
}

// ListMessages returns copies of all messages of a chat.
func (s *MemoryStore) ListMessages(_ context.Context, chatID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Message, 0, len(s.chats[chatID]))
	for _, msg := range s.chats[chatID] {
		out = append(out, *cloneMessage(msg))
	}
	return out, nil
}

// UpdateRun applies a partial run update atomically.
func (s *MemoryStore) UpdateRun(_ context.Context, chatID, messageID string, upd core.RunUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.chats[chatID][messageID]
	if !ok {
		return &core.NotFoundError{Kind: "message", ID: messageID}
	}

	// Apply on a copy so a rejected transition leaves the stored message untouched.
	next := cloneMessage(msg)
	if err := ApplyRunUpdate(next, upd, s.clock()); err != nil {
		return err
	}
	s.chats[chatID][messageID] = next

	return nil
}

// AppendOutputEvents union-appends events to the run's event log.
func (s *MemoryStore) AppendOutputEvents(_ context.Context, chatID, messageID string, events ...core.OutputEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.chats[chatID][messageID]
	if !ok {
		return &core.NotFoundError{Kind: "message", ID: messageID}
	}
	if msg.Run == nil {
		msg.Run = &core.RunState{Status: core.RunStatusPending}
	}

	merged, err := UnionEvents(msg.Run.OutputEvents, events...)
	if err != nil {
		return err
	}
	msg.Run.OutputEvents = merged

	return nil
}

// GetAgent returns the agent configuration document.
func (s *MemoryStore) GetAgent(_ context.Context, agentID string) (core.ConfigDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.agents[agentID]
	if !ok {
		return nil, &core.NotFoundError{Kind: "agent", ID: agentID}
	}
	return maps.Clone(doc), nil
}

// GetModel returns the model configuration document.
func (s *MemoryStore) GetModel(_ context.Context, modelID string) (core.ConfigDoc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.models[modelID]
	if !ok {
		return nil, &core.NotFoundError{Kind: "model", ID: modelID}
	}
	return maps.Clone(doc), nil
}

// cloneMessage copies the slices of a message. Output events are shared
// since entries are never rewritten once appended.
func cloneMessage(m *core.Message) *core.Message {
	c := *m
	c.Parts = append([]core.MessagePart(nil), m.Parts...)
	if m.Run != nil {
		r := *m.Run
		r.OutputEvents = append([]core.OutputEvent(nil), m.Run.OutputEvents...)
		r.QueryErrorDetails = append([]string(nil), m.Run.QueryErrorDetails...)
		r.ProcessedArtifacts = append([]core.ArtifactRef(nil), m.Run.ProcessedArtifacts...)
		r.RawStuffedContextItems = append([]core.ContextItem(nil), m.Run.RawStuffedContextItems...)
		if m.Run.CompletedTimestamp != nil {
			ts := *m.Run.CompletedTimestamp
			r.CompletedTimestamp = &ts
		}
		c.Run = &r
	}
	return &c
}
