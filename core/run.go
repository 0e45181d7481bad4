package core

import (
	"errors"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of an assistant message run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusError     RunStatus = "error"
)

// ErrInvalidTransition is returned by run stores when an update would move a
// run status backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid run status transition")

// IsTerminal reports whether no further transition is allowed.
func (s RunStatus) IsTerminal() bool { return s == RunStatusCompleted || s == RunStatusError }

// CanTransitionTo reports whether moving from s to next is monotonic:
// pending -> running -> {completed|error}, plus pending -> error. An empty
// status is treated as pending.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	if s == "" {
		s = RunStatusPending
	}
	switch s {
	case RunStatusPending:
		return next == RunStatusRunning || next == RunStatusError
	case RunStatusRunning:
		return next == RunStatusCompleted || next == RunStatusError
	default:
		return false
	}
}

// CheckTransition returns a wrapped ErrInvalidTransition when the move is not allowed.
func CheckTransition(from, to RunStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
	}
	return nil
}

// OutputEvent is an opaque, JSON friendly record appended to a run's event log.
type OutputEvent = map[string]any

// RunState is the execution tracking record embedded in an assistant message.
// OutputEvents is append-only and only ever extended with union semantics.
type RunState struct {
	Status                 RunStatus     `json:"status"`
	OutputEvents           []OutputEvent `json:"outputEvents,omitempty"`
	FinalResponseText      string        `json:"finalResponseText,omitempty"`
	QueryErrorDetails      []string      `json:"queryErrorDetails,omitempty"`
	ProcessedArtifacts     []ArtifactRef `json:"processedArtifacts,omitempty"`
	InputCharacterCount    int           `json:"inputCharacterCount,omitempty"`
	CompletedTimestamp     *time.Time    `json:"completedTimestamp,omitempty"`
	RawStuffedContextItems []ContextItem `json:"rawStuffedContextItems,omitempty"`
}

// RunUpdate is a partial update of a message run. Nil fields are left untouched.
type RunUpdate struct {
	// Status moves the run forward; stores reject non-monotonic moves.
	Status *RunStatus

	// Content replaces the message level content (the visible reply).
	Content           *string
	FinalResponseText *string

	// QueryErrorDetails replaces the error list when non-nil.
	QueryErrorDetails []string

	// AppendErrorDetails are union-appended to the error list.
	AppendErrorDetails []string

	ProcessedArtifacts  []ArtifactRef
	InputCharacterCount *int

	// Complete stamps CompletedTimestamp with the store's clock.
	Complete bool
}

// StatusPtr is a small helper for building RunUpdate values.
func StatusPtr(s RunStatus) *RunStatus { return &s }

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
