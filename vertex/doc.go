// Package vertex is a REST client for agents deployed to Vertex AI Agent
// Engine (reasoning engines).
//
// A deployed agent is queried in two steps: CreateSession opens a managed
// session for a user and StreamQuery sends one message, returning the
// agent's events as they are produced.
package vertex
