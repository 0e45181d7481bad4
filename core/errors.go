package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel wrapped by NotFoundError and returned by stores
// for missing documents, objects and artifacts.
var ErrNotFound = errors.New("not found")

// ErrCallBudgetExhausted ends a local run that asked for more model calls
// than its CallBudget allows.
var ErrCallBudgetExhausted = errors.New("model call budget exhausted")

// ValidationError reports a missing or malformed required field. It fails the
// whole task immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("validation failed: %s is required", e.Field)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing message or participant.
type NotFoundError struct {
	Kind string // "message", "agent", "model", "participant"
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotDeployedError reports a Vertex agent that is not ready to be queried.
type NotDeployedError struct {
	AgentID string
	Status  string
}

func (e *NotDeployedError) Error() string {
	return fmt.Sprintf("agent %s is not successfully deployed (status %q)", e.AgentID, e.Status)
}

// BackendCommunicationError wraps a transport or HTTP failure while talking to
// a remote agent backend.
type BackendCommunicationError struct {
	Backend    string // "a2a", "vertex"
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendCommunicationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s failed", e.Backend, e.Op)
}

func (e *BackendCommunicationError) Unwrap() error { return e.Err }

// PartialDecodeError reports one malformed frame or record. It is logged and
// skipped, never propagated.
type PartialDecodeError struct {
	Source string
	Err    error
}

func (e *PartialDecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *PartialDecodeError) Unwrap() error { return e.Err }
