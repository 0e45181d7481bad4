package core

import (
	"time"

	"github.com/google/uuid"
)

// EventActions encodes side-effects attached to an Event. The runner applies
// them after persistence.
type EventActions struct {
	StateDelta map[string]any `json:"state_delta,omitempty"`
}

// Event is the unit of communication between a local agent, the runner and
// the execution strategy consuming the run. After emission it should be
// treated as immutable.
//
// Content may be nil for error-only events. Timestamp is UTC.
type Event struct {
	ID           string       `json:"id"`
	InvocationID string       `json:"invocation_id"`
	Author       string       `json:"author"`
	Actions      EventActions `json:"actions"`
	Branch       *string      `json:"branch,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Content      *Content     `json:"content,omitempty"`
	Partial      *bool        `json:"partial,omitempty"`
	TurnComplete *bool        `json:"turn_complete,omitempty"`
	ErrorCode    *string      `json:"error_code,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// NewEvent creates a bare event authored by 'author' bound to an invocation.
func NewEvent(invocationID, author string) Event {
	return Event{
		ID:           NewID(),
		InvocationID: invocationID,
		Author:       author,
		Timestamp:    time.Now().UTC(),
		Actions:      EventActions{},
	}
}

// NewMessageEvent creates a non-user assistant message event with a single text part.
func NewMessageEvent(author, message string) Event {
	e := NewEvent("", author)
	e.Content = &Content{Role: "assistant", Parts: []Part{TextPart{Text: message}}}
	return e
}

// NewUserContentEvent creates a user-authored event with arbitrary Content.
func NewUserContentEvent(invocationID string, content *Content) Event {
	e := NewEvent(invocationID, "user")
	e.Content = content
	return e
}

// NewID generates a new UUID based identifier.
func NewID() string { return uuid.NewString() }

// IsPartial reports whether this event is a streaming fragment that will be
// followed by an aggregated final event.
func (e Event) IsPartial() bool { return e.Partial != nil && *e.Partial }

// Text returns the concatenated text parts of the event content.
func (e Event) Text() string {
	if e.Content == nil {
		return ""
	}
	return e.Content.Text()
}

// Record renders the event as an opaque output record for a run's event log.
func (e Event) Record() OutputEvent {
	rec := OutputEvent{
		"id":            e.ID,
		"invocation_id": e.InvocationID,
		"author":        e.Author,
		"timestamp":     e.UnixSeconds(),
		"partial":       e.IsPartial(),
	}
	if e.Content != nil {
		parts := make([]any, 0, len(e.Content.Parts))
		for _, p := range e.Content.Parts {
			parts = append(parts, PartRecord(p))
		}
		rec["content"] = map[string]any{"role": e.Content.Role, "parts": parts}
	}
	if e.Branch != nil {
		rec["branch"] = *e.Branch
	}
	if e.ErrorCode != nil {
		rec["error_code"] = *e.ErrorCode
	}
	if e.ErrorMessage != nil {
		rec["error_message"] = *e.ErrorMessage
	}
	if e.FinishReason != "" {
		rec["finish_reason"] = e.FinishReason
	}
	return rec
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
