package testutil

import (
	"github.com/hupe1980/agentlab/core"
)

// SessionBuilder prepares the working session of a local run as it would look
// part-way through the run.
// Example:
//
//	sess := NewSession("task-1").WithState("draft", "v1").UserTurn("write").AgentTurn("writer", "v1").Build()
type SessionBuilder struct {
	sess  *core.Session
	runID string
}

// NewSession starts a builder for the session with the given id. Events get
// the invocation id "run-1" unless WithRun changes it.
func NewSession(id string) *SessionBuilder {
	return &SessionBuilder{sess: core.NewSession(id), runID: "run-1"}
}

// WithRun sets the invocation id used by subsequent turns (chainable).
func (b *SessionBuilder) WithRun(runID string) *SessionBuilder {
	b.runID = runID
	return b
}

// WithState stores a state value as if an earlier agent had written it
// (chainable).
func (b *SessionBuilder) WithState(key string, val any) *SessionBuilder {
	b.sess.ApplyStateDelta(map[string]any{key: val})
	return b
}

// UserTurn records the task prompt (chainable).
func (b *SessionBuilder) UserTurn(text string) *SessionBuilder {
	return b.WithEvents(NewEventBuilder().Author("user").Invocation(b.runID).UserText(text).Build())
}

// AgentTurn records a final reply of the named agent (chainable).
func (b *SessionBuilder) AgentTurn(author, text string) *SessionBuilder {
	return b.WithEvents(NewEventBuilder().Author(author).Invocation(b.runID).AssistantText(text).TurnComplete(true).Build())
}

// WithEvents appends prepared events unchanged (chainable).
func (b *SessionBuilder) WithEvents(evs ...core.Event) *SessionBuilder {
	for _, ev := range evs {
		b.sess.AddEvent(ev)
	}

	return b
}

func (b *SessionBuilder) Build() *core.Session { return b.sess }
