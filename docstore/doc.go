// Package docstore provides document database implementations of the
// core.DocumentStore contracts.
//
// The in-memory MemoryStore in this package is the default for tests and
// local runs. Subpackages bind the same contracts to Firestore
// (docstore/firestore) and SQLite (docstore/sqlite).
//
// Every implementation enforces monotonic run status transitions and
// appends output events with union semantics. The helpers in run.go
// implement both rules for stores that do a read-modify-write.
package docstore
