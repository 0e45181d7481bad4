package core

import (
	"context"
	"sync"
)

type testLogger struct{}

func (l testLogger) Debug(string, ...interface{}) {}
func (l testLogger) Info(string, ...interface{})  {}
func (l testLogger) Warn(string, ...interface{})  {}
func (l testLogger) Error(string, ...interface{}) {}

type rcMockSessionService struct {
	applied map[string]map[string]interface{}
}

func (s *rcMockSessionService) Get(id string) (*Session, error)       { return NewSession(id), nil }
func (s *rcMockSessionService) Create(id string) (*Session, error)    { return NewSession(id), nil }
func (s *rcMockSessionService) AppendEvent(id string, ev Event) error { return nil }
func (s *rcMockSessionService) ApplyDelta(id string, delta map[string]interface{}) error {
	if s.applied == nil {
		s.applied = map[string]map[string]interface{}{}
	}
	cp := map[string]interface{}{}
	for k, v := range delta {
		cp[k] = v
	}
	s.applied[id] = cp
	return nil
}

// recordingRunStore captures appended events; failAt makes the n-th append fail.
type recordingRunStore struct {
	mu      sync.Mutex
	events  []OutputEvent
	updates []RunUpdate
	failAt  int
	calls   int
}

func (s *recordingRunStore) UpdateRun(_ context.Context, _, _ string, upd RunUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, upd)
	return nil
}

func (s *recordingRunStore) AppendOutputEvents(_ context.Context, _, _ string, events ...OutputEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return context.DeadlineExceeded
	}
	s.events = append(s.events, events...)
	return nil
}

func newRunContextForTest() (*RunContext, chan Event) {
	emit := make(chan Event, 5)
	resume := make(chan struct{}, 5)
	sess := NewSession("sess-x")
	return NewRunContext(
		context.Background(), "sess-x", "run-x",
		AgentInfo{Name: "Agent1", Type: "test"}, Content{}, 0,
		emit, resume, sess, &rcMockSessionService{}, testLogger{},
	), emit
}
