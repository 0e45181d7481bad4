// Package core provides the foundational domain types and collaborator
// contracts used by AgentLab. It defines:
//
//   - Chat messages, their embedded run state and the monotonic status machine
//   - Context items and the artifact references they materialize into
//   - Participant configuration records (agents and models)
//   - Role based Content / Part values exchanged with execution backends
//   - Events, Sessions and the RunContext used by local agent runs
//   - Store interfaces for messages, runs, participants, artifacts and objects
//   - The error taxonomy shared by every task stage
//
// Concrete persistence (Firestore, SQLite, GCS, S3, in-memory) lives in
// sibling packages so callers depend only on these small interfaces.
package core
