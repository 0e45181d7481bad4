package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/objectstore"
)

const (
	defaultItemName  = "context-item"
	defaultImageMime = "image/png"
)

// Scope identifies where materialized artifacts are versioned.
type Scope struct {
	App       string
	UserID    string // execution identity
	SessionID string // chat id
}

// Key returns the artifact key of filename within the scope.
func (s Scope) Key(filename string) core.ArtifactKey {
	return core.ArtifactKey{App: s.App, UserID: s.UserID, SessionID: s.SessionID, Filename: filename}
}

// MaterializerOptions configures a Materializer.
type MaterializerOptions struct {
	Logger logging.Logger
	// Suffix returns the random filename disambiguator. Defaults to 12 hex
	// characters of a random UUID.
	Suffix func() string
}

// Materializer converts raw context items into versioned artifacts.
type Materializer struct {
	artifacts core.ArtifactStore
	objects   core.ObjectStore
	logger    logging.Logger
	suffix    func() string
}

// NewMaterializer creates a Materializer. objects is used to fetch image
// bytes referenced by storage URIs.
func NewMaterializer(artifacts core.ArtifactStore, objects core.ObjectStore, optFns ...func(o *MaterializerOptions)) *Materializer {
	opts := MaterializerOptions{
		Logger: logging.NoOpLogger{},
		Suffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Materializer{
		artifacts: artifacts,
		objects:   objects,
		logger:    logging.OrNoOp(opts.Logger),
		suffix:    opts.Suffix,
	}
}

// Materialize persists each usable item as a new artifact version and
// returns one reference per stored item. Malformed items and items whose
// fetch or save fails are logged and skipped.
func (m *Materializer) Materialize(ctx context.Context, items []core.ContextItem, scope Scope) []core.ArtifactRef {
	refs := make([]core.ArtifactRef, 0, len(items))

	for i, item := range items {
		part, ok := m.toPart(ctx, item)
		if !ok {
			continue
		}

		name := item.Name
		if name == "" {
			name = defaultItemName
		}

		filename := fmt.Sprintf("%s-%s-%s", item.Type, m.suffix(), strings.ReplaceAll(name, "/", "_"))

		version, err := m.artifacts.Save(ctx, scope.Key(filename), part)
		if err != nil {
			m.logger.Error("Failed to save context artifact", "index", i, "filename", filename, "error", err)
			continue
		}

		m.logger.Debug("Materialized context item", "filename", filename, "version", version, "type", string(item.Type))

		refs = append(refs, core.ArtifactRef{
			Filename:     filename,
			Version:      version,
			OriginalName: name,
			Type:         item.Type,
		})
	}

	return refs
}

func (m *Materializer) toPart(ctx context.Context, item core.ContextItem) (core.Part, bool) {
	switch {
	case item.Type.IsTextual():
		if item.Content == "" {
			m.logger.Warn("Skipping context item without content", "type", string(item.Type), "name", item.Name)
			return nil, false
		}
		return core.TextPart{Text: item.Content}, true

	case item.Type == core.ContextItemImage:
		if !objectstore.IsObjectURI(item.StorageURL) {
			m.logger.Warn("Skipping image context item without object storage URI", "name", item.Name, "storage_url", item.StorageURL)
			return nil, false
		}

		obj, err := m.objects.Read(ctx, item.StorageURL)
		if err != nil {
			m.logger.Error("Failed to fetch image context item", "storage_url", item.StorageURL, "error", err)
			return nil, false
		}

		mime := item.MimeType
		if mime == "" {
			mime = defaultImageMime
		}

		return core.InlineDataPart{Data: obj.Data, MimeType: mime, Name: item.Name}, true

	default:
		m.logger.Warn("Skipping context item of unknown type", "type", string(item.Type), "name", item.Name)
		return nil, false
	}
}
