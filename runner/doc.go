// Package runner drives one local agent run.
//
// The Runner bridges a caller that consumes events and an agent tree that
// emits them. It owns the emit/resume handshake: every final event is
// persisted to the session store (state delta first, then the event) before
// the agent is allowed to continue.
//
// # Responsibilities
//   - Run lifecycle (start, stop, cancellation by run id)
//   - Event processing and state delta application
//   - Session history persistence
package runner
