package core

import (
	"sync"
	"time"
)

// Session is the working memory of one local task run: the state written by
// agents through output keys and state deltas, and every event the runner
// persisted. Later agents of the same run see the replies of earlier ones
// through Turns.
type Session struct {
	ID      string         `json:"id"`
	State   map[string]any `json:"state"`
	Events  []Event        `json:"events"`
	Updated time.Time      `json:"updated"`

	mu sync.RWMutex
}

// NewSession returns an empty session.
func NewSession(id string) *Session {
	return &Session{ID: id, State: map[string]any{}, Events: []Event{}, Updated: time.Now()}
}

func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.State[key]

	return v, ok
}

func (s *Session) SetState(key string, value any) {
	s.ApplyStateDelta(map[string]any{key: value})
}

// ApplyStateDelta merges delta into State. Keys absent from delta keep their
// value.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	if len(delta) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range delta {
		s.State[k] = v
	}

	s.Updated = time.Now()
}

func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Events = append(s.Events, ev)
	s.Updated = time.Now()
}

// GetEvents returns a copy of the recorded events.
func (s *Session) GetEvents() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]Event(nil), s.Events...)
}

// Turns returns the events that form the conversation of the run: the user
// prompt and the final replies of agents. Streaming fragments and events
// without content (errors, pure state updates) are left out.
func (s *Session) Turns() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var turns []Event

	for _, ev := range s.Events {
		if ev.Content == nil || ev.IsPartial() {
			continue
		}

		switch ev.Content.Role {
		case "user", "assistant":
			turns = append(turns, ev)
		}
	}

	return turns
}

// Clone returns a session whose state and event list can be modified without
// affecting s.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Session{
		ID:      s.ID,
		State:   copyState(s.State),
		Events:  append([]Event(nil), s.Events...),
		Updated: s.Updated,
	}
}

// StateMap returns a snapshot of State, e.g. for instruction templates.
func (s *Session) StateMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyState(s.State)
}

func copyState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}

	return out
}

// SessionStore keeps the sessions of local runs.
type SessionStore interface {
	Create(id string) (*Session, error)
	Get(id string) (*Session, error)
	AppendEvent(sessionID string, event Event) error
	ApplyDelta(sessionID string, delta map[string]any) error
}
