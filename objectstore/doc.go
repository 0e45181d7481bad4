// Package objectstore provides core.ObjectStore implementations addressed by
// URI.
//
// MemoryStore keeps objects in process. Mux routes a URI to the store
// registered for its scheme, so one ObjectStore value can serve gs:// and
// s3:// references side by side. The gcs and s3 subpackages talk to the
// real services.
package objectstore
