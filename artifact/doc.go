// Package artifact contains implementations of the versioned core.ArtifactStore
// and the context Materializer that turns raw context items into artifacts.
//
// The canonical ArtifactStore interface lives in the core package to avoid
// dependency cycles and keep domain contracts central. Implementations in
// this package (in-memory, object storage) can be swapped without touching
// calling code.
//
// Every Save creates a new version. Versions start at 0 and are scoped by
// application, user (execution identity), session (chat) and filename.
package artifact
