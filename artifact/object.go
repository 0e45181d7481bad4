package artifact

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/objectstore"
)

const textContentType = "text/plain; charset=utf-8"

// ObjectStore persists artifact versions as objects under
//
//	{base}/{app}/{user}/{session}/{filename}/{version}
//
// Versions are discovered by probing for existing objects, so the store
// needs no index of its own. Text parts are written with a text/plain
// content type, which is how Load tells them apart from binary parts.
type ObjectStore struct {
	objects core.ObjectStore
	base    string
}

// NewObjectStore creates a store rooted at base (e.g. gs://bucket/artifacts).
func NewObjectStore(objects core.ObjectStore, base string) (*ObjectStore, error) {
	if _, err := objectstore.ParseURI(base); err != nil {
		return nil, fmt.Errorf("artifact base: %w", err)
	}
	return &ObjectStore{objects: objects, base: base}, nil
}

func (s *ObjectStore) prefix(key core.ArtifactKey) string {
	return objectstore.Join(s.base, key.App, key.UserID, key.SessionID, key.Filename)
}

func (s *ObjectStore) uri(key core.ArtifactKey, version int) string {
	return objectstore.Join(s.prefix(key), strconv.Itoa(version))
}

// Save writes the part as the next free version.
func (s *ObjectStore) Save(ctx context.Context, key core.ArtifactKey, part core.Part) (int, error) {
	var (
		data        []byte
		contentType string
	)

	switch p := part.(type) {
	case core.TextPart:
		data, contentType = []byte(p.Text), textContentType
	case core.InlineDataPart:
		data, contentType = p.Data, p.MimeType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedPart, part)
	}

	versions, err := s.ListVersions(ctx, key)
	if err != nil {
		return 0, err
	}
	version := len(versions)

	if err := s.objects.Write(ctx, s.uri(key, version), data, contentType); err != nil {
		return 0, fmt.Errorf("save artifact %s v%d: %w", key.Filename, version, err)
	}

	return version, nil
}

// Load reads the requested version, or the newest for core.LatestVersion.
func (s *ObjectStore) Load(ctx context.Context, key core.ArtifactKey, version int) (core.Part, error) {
	if version == core.LatestVersion {
		versions, err := s.ListVersions(ctx, key)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, ErrNotFound
		}
		version = versions[len(versions)-1]
	}

	obj, err := s.objects.Read(ctx, s.uri(key, version))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("version %d: %w", version, ErrNotFound)
		}
		return nil, fmt.Errorf("load artifact %s v%d: %w", key.Filename, version, err)
	}

	if strings.HasPrefix(obj.ContentType, "text/plain") {
		return core.TextPart{Text: string(obj.Data)}, nil
	}

	return core.InlineDataPart{Data: obj.Data, MimeType: obj.ContentType, Name: key.Filename}, nil
}

// ListVersions probes consecutive versions starting at 0.
func (s *ObjectStore) ListVersions(ctx context.Context, key core.ArtifactKey) ([]int, error) {
	var out []int
	for v := 0; ; v++ {
		ok, err := s.objects.Exists(ctx, s.uri(key, v))
		if err != nil {
			return nil, fmt.Errorf("probe artifact %s v%d: %w", key.Filename, v, err)
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Delete removes every version of the artifact.
func (s *ObjectStore) Delete(ctx context.Context, key core.ArtifactKey) error {
	versions, err := s.ListVersions(ctx, key)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return ErrNotFound
	}

	// Newest first, so a failed delete leaves a contiguous version sequence.
	for i := len(versions) - 1; i >= 0; i-- {
		if err := s.objects.Delete(ctx, s.uri(key, versions[i])); err != nil {
			return fmt.Errorf("delete artifact %s v%d: %w", key.Filename, versions[i], err)
		}
	}

	return nil
}

func isNotFound(err error) bool { return errors.Is(err, core.ErrNotFound) }
