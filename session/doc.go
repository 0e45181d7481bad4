// Package session houses concrete implementations of core.SessionStore used
// by local agent runs. Each task creates a fresh session; nothing outlives the
// run, so only an in-memory backend is provided.
package session
