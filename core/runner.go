package core

import "context"

// Runner executes a root agent within a session.
//
// Semantics:
//   - Events emitted within a run are delivered in the order produced.
//   - The events channel is closed after the run completes. The error
//     channel carries at most one terminal error then closes.
//   - Partial events may be emitted; consumers check IsPartial().
type Runner interface {
	// Run starts an asynchronous execution bound to sessionID using userContent
	// as the input turn. The immediate error covers startup failures.
	Run(ctx context.Context, sessionID string, userContent Content) (string, <-chan Event, <-chan error, error)

	// Cancel requests cooperative termination of an in-flight run.
	Cancel(runID string) error
}
