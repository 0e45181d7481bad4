// Package prompt assembles the multimodal user content of a turn from
// materialized context artifacts and the reconstructed conversation history.
package prompt

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/agentlab/artifact"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/objectstore"
)

// ImageMode selects how history images reach the backend.
type ImageMode int

const (
	// ImageReference emits URI parts the backend dereferences itself.
	ImageReference ImageMode = iota
	// ImageInline fetches the bytes and embeds them.
	ImageInline
)

func (m ImageMode) String() string {
	if m == ImageInline {
		return "inline"
	}
	return "reference"
}

const defaultHistoryImageMime = "image/jpeg"

// Options configures an Assembler.
type Options struct {
	Logger logging.Logger
}

// Assembler builds prompt content.
type Assembler struct {
	artifacts core.ArtifactStore
	objects   core.ObjectStore
	logger    logging.Logger
}

// New creates an Assembler. artifacts resolves context references and
// objects serves inline history images.
func New(artifacts core.ArtifactStore, objects core.ObjectStore, optFns ...func(o *Options)) *Assembler {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Assembler{artifacts: artifacts, objects: objects, logger: logging.OrNoOp(opts.Logger)}
}

// Assemble returns the user content for the turn and its character count.
//
// Part order is: one text part with all context files, the user turns of
// history in chronological order, then binary context artifacts. Turns of
// non-user participants are left out. The result always has at least one
// part.
func (a *Assembler) Assemble(ctx context.Context, history []core.Message, refs []core.ArtifactRef, scope artifact.Scope, mode ImageMode) (core.Content, int) {
	var (
		parts    []core.Part
		trailing []core.Part
		chunks   []string
		chars    int
	)

	for _, ref := range refs {
		p, err := a.artifacts.Load(ctx, scope.Key(ref.Filename), ref.Version)
		if err != nil {
			a.logger.Error("Failed to load context artifact", "filename", ref.Filename, "version", ref.Version, "error", err)
			chunks = append(chunks, fmt.Sprintf("[Error loading context file: %s]", ref.OriginalName))
			continue
		}

		switch v := p.(type) {
		case core.TextPart:
			chunks = append(chunks, fmt.Sprintf("--- START CONTEXT FILE: %s ---\n%s\n--- END CONTEXT FILE ---", ref.OriginalName, v.Text))
		case core.InlineDataPart, core.FileDataPart:
			trailing = append(trailing, v)
		}
	}

	if len(chunks) > 0 {
		text := strings.Join(chunks, "\n\n")
		chars += utf8.RuneCountInString(text)
		parts = append(parts, core.TextPart{Text: text})
	}

	for _, msg := range history {
		if !msg.IsUser() {
			continue
		}

		if len(msg.Parts) == 0 && msg.Content != "" {
			chars += utf8.RuneCountInString(msg.Content)
			parts = append(parts, core.TextPart{Text: msg.Content})
			continue
		}

		for _, mp := range msg.Parts {
			switch mp.Type {
			case core.MessagePartText:
				text := mp.Text()
				if text == "" {
					continue
				}
				chars += utf8.RuneCountInString(text)
				parts = append(parts, core.TextPart{Text: text})

			case core.MessagePartImage:
				if p, ok := a.historyImage(ctx, mp, mode); ok {
					parts = append(parts, p)
				}
			}
		}
	}

	parts = append(parts, trailing...)

	if len(parts) == 0 {
		parts = []core.Part{core.TextPart{Text: ""}}
	}

	return core.Content{Role: "user", Parts: parts}, chars
}

func (a *Assembler) historyImage(ctx context.Context, mp core.MessagePart, mode ImageMode) (core.Part, bool) {
	if !objectstore.IsObjectURI(mp.StorageURL) {
		a.logger.Warn("Skipping history image without object storage URI", "storage_url", mp.StorageURL)
		return nil, false
	}

	mime := mp.MimeType

	if mode == ImageReference {
		if mime == "" {
			mime = defaultHistoryImageMime
		}
		return core.FileDataPart{URI: mp.StorageURL, MimeType: mime}, true
	}

	obj, err := a.objects.Read(ctx, mp.StorageURL)
	if err != nil {
		a.logger.Error("Failed to fetch history image", "storage_url", mp.StorageURL, "error", err)
		return nil, false
	}

	if mime == "" {
		mime = obj.ContentType
	}
	if mime == "" {
		mime = defaultHistoryImageMime
	}

	return core.InlineDataPart{Data: obj.Data, MimeType: mime}, true
}
