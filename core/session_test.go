package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionApplyStateDelta(t *testing.T) {
	s := NewSession("task-1")
	s.SetState("plan", "draft")

	s.ApplyStateDelta(map[string]any{"plan": "final", "step": 2})
	s.ApplyStateDelta(nil)

	assert.Equal(t, map[string]any{"plan": "final", "step": 2}, s.StateMap())
}

func TestSessionTurnsSkipFragmentsAndErrors(t *testing.T) {
	prompt := NewTextContent("user", "summarize the notes")
	partial := true
	budget := "model call budget exhausted"
	tool := NewTextContent("tool", "ignored")

	s := NewSession("task-1")
	s.AddEvent(NewUserContentEvent("run-1", &prompt))
	s.AddEvent(Event{Author: "writer", Content: &Content{Role: "assistant", Parts: []Part{TextPart{Text: "Sum"}}}, Partial: &partial})
	s.AddEvent(NewMessageEvent("writer", "Summary."))
	s.AddEvent(Event{Author: "writer", ErrorMessage: &budget})
	s.AddEvent(Event{Author: "search", Content: &tool})

	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "summarize the notes", turns[0].Text())
	assert.Equal(t, "Summary.", turns[1].Text())
	assert.Len(t, s.GetEvents(), 5)
}

func TestSessionCloneAndSnapshotsAreDetached(t *testing.T) {
	s := NewSession("task-1")
	s.SetState("k", "v")
	s.AddEvent(NewMessageEvent("a", "one"))

	clone := s.Clone()
	clone.SetState("k", "changed")
	clone.AddEvent(NewMessageEvent("b", "two"))

	events := s.GetEvents()
	events[0].Author = "mutated"

	state := s.StateMap()
	state["k"] = "mutated"

	v, _ := s.GetState("k")
	assert.Equal(t, "v", v)
	require.Len(t, s.GetEvents(), 1)
	assert.Equal(t, "a", s.GetEvents()[0].Author)
	assert.Len(t, clone.GetEvents(), 2)
}
