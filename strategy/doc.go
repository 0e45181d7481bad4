// Package strategy executes one assembled turn against a resolved
// participant and streams the backend's events into the run's event log.
//
// Three strategies exist:
//
//   - Remote talks A2A JSON-RPC (streaming or unary, with a final task/get
//     poll when the stream ends early).
//   - Deployed queries an agent running on Vertex AI Agent Engine.
//   - Local builds the agent tree in process and drives it with a runner.
//
// Strategies never fail a task: backend failures become error details on
// the Result and whatever text arrived before the failure is kept.
package strategy
