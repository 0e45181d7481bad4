// Package gcs implements core.ObjectStore on Google Cloud Storage for gs:// URIs.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/objectstore"
)

// Compile-time interface compliance check.
var _ core.ObjectStore = (*Store)(nil)

// Store reads and writes gs:// objects.
type Store struct {
	client *storage.Client
}

// New creates a store using application default credentials.
func New(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return NewFromClient(client), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *storage.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

func (s *Store) object(uri string) (*storage.ObjectHandle, error) {
	u, err := parse(uri)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(u.Bucket).Object(u.Key), nil
}

// Read downloads an object.
func (s *Store) Read(ctx context.Context, uri string) (*core.Object, error) {
	obj, err := s.object(uri)
	if err != nil {
		return nil, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %s: %w", uri, core.ErrNotFound)
		}
		return nil, fmt.Errorf("opening %s: %w", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}

	return &core.Object{Data: data, ContentType: r.Attrs.ContentType}, nil
}

// Write uploads an object, replacing any existing content.
func (s *Store) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	obj, err := s.object(uri)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %s: %w", uri, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", uri, err)
	}

	return nil
}

// Exists probes the object attributes.
func (s *Store) Exists(ctx context.Context, uri string) (bool, error) {
	obj, err := s.object(uri)
	if err != nil {
		return false, err
	}

	if _, err := obj.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", uri, err)
	}

	return true, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, uri string) error {
	obj, err := s.object(uri)
	if err != nil {
		return err
	}

	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s: %w", uri, err)
	}

	return nil
}

// PublicURL returns the storage.googleapis.com URL of the object.
func (s *Store) PublicURL(uri string) (string, error) {
	u, err := parse(uri)
	if err != nil {
		return "", err
	}
	return "https://storage.googleapis.com/" + u.Bucket + "/" + (&url.URL{Path: u.Key}).EscapedPath(), nil
}

func parse(uri string) (objectstore.URI, error) {
	u, err := objectstore.ParseURI(uri)
	if err != nil {
		return objectstore.URI{}, err
	}
	if u.Scheme != objectstore.SchemeGCS {
		return objectstore.URI{}, fmt.Errorf("gcs store can not handle %q", uri)
	}
	if u.Key == "" {
		return objectstore.URI{}, fmt.Errorf("object uri %q: missing key", uri)
	}
	return u, nil
}
