// Package logging provides a minimal logging interface and adapters for AgentLab.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// used by the task orchestrator, the execution strategies and the stores.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - AgentLabLogger with component / session scoping and stack capture
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch := task.New(store, func(o *task.Options) { o.Logger = logger })
//
// Arguments after the message are slog style key/value pairs.
package logging
