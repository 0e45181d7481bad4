package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/artifact"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/internal/testutil"
	"github.com/hupe1980/agentlab/objectstore"
)

var scope = artifact.Scope{App: "agentlab", UserID: "u1", SessionID: "c1"}

func save(t *testing.T, s core.ArtifactStore, filename string, p core.Part) core.ArtifactRef {
	t.Helper()
	v, err := s.Save(context.Background(), scope.Key(filename), p)
	require.NoError(t, err)
	return core.ArtifactRef{Filename: filename, Version: v, OriginalName: filename + ".orig"}
}

func TestAssemble_NeverEmpty(t *testing.T) {
	a := New(artifact.NewInMemoryStore(), objectstore.NewMemoryStore())

	content, chars := a.Assemble(context.Background(), nil, nil, scope, ImageReference)
	require.Len(t, content.Parts, 1)
	assert.Equal(t, core.TextPart{Text: ""}, content.Parts[0])
	assert.Equal(t, "user", content.Role)
	assert.Zero(t, chars)

	onlyAgents := []core.Message{testutil.NewMessage("a").FromAgent("bot").Text("ignored").Build()}
	content, _ = a.Assemble(context.Background(), onlyAgents, nil, scope, ImageInline)
	require.Len(t, content.Parts, 1)
}

func TestAssemble_OrderAndContextRendering(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewInMemoryStore()
	objects := objectstore.NewMemoryStore()

	refs := []core.ArtifactRef{
		save(t, store, "notes", core.TextPart{Text: "alpha"}),
		save(t, store, "diagram", core.InlineDataPart{Data: []byte{1}, MimeType: "image/png"}),
		save(t, store, "readme", core.TextPart{Text: "beta"}),
		{Filename: "gone", Version: 0, OriginalName: "gone.txt"},
	}

	history := []core.Message{
		testutil.NewMessage("u1").FromUser("x").Text("first question").Build(),
		testutil.NewMessage("a1").FromAgent("bot").Text("an answer").Build(),
		testutil.NewMessage("u2").FromUser("x").Text("second").Image("gs://b/photo", "").Build(),
	}

	content, chars := New(store, objects).Assemble(ctx, history, refs, scope, ImageReference)

	require.Len(t, content.Parts, 5)

	ctxText := content.Parts[0].(core.TextPart).Text
	want := "--- START CONTEXT FILE: notes.orig ---\nalpha\n--- END CONTEXT FILE ---\n\n" +
		"--- START CONTEXT FILE: readme.orig ---\nbeta\n--- END CONTEXT FILE ---\n\n" +
		"[Error loading context file: gone.txt]"
	assert.Equal(t, want, ctxText)

	assert.Equal(t, core.TextPart{Text: "first question"}, content.Parts[1])
	assert.Equal(t, core.TextPart{Text: "second"}, content.Parts[2])
	assert.Equal(t, core.FileDataPart{URI: "gs://b/photo", MimeType: "image/jpeg"}, content.Parts[3])
	assert.IsType(t, core.InlineDataPart{}, content.Parts[4])

	assert.Equal(t, len(want)+len("first question")+len("second"), chars)
}

func TestAssemble_InlineImages(t *testing.T) {
	ctx := context.Background()
	objects := objectstore.NewMemoryStore()
	require.NoError(t, objects.Write(ctx, "s3://b/pic", []byte{7}, "image/webp"))

	history := []core.Message{
		testutil.NewMessage("u1").FromUser("x").
			Image("s3://b/pic", "").
			Image("gs://b/missing", "image/png").
			Image("https://example.com/not-object.png", "").
			Build(),
	}

	content, chars := New(artifact.NewInMemoryStore(), objects).Assemble(ctx, history, nil, scope, ImageInline)

	require.Len(t, content.Parts, 1)
	assert.Equal(t, core.InlineDataPart{Data: []byte{7}, MimeType: "image/webp"}, content.Parts[0])
	assert.Zero(t, chars)
}

func TestAssemble_TextFallsBackToData(t *testing.T) {
	history := []core.Message{
		testutil.NewMessage("u1").FromUser("x").Part(core.MessagePart{Type: core.MessagePartText, Data: "legacy"}).Build(),
		{ID: "u2", Participant: "user:x", Content: "content only"},
	}

	content, chars := New(artifact.NewInMemoryStore(), objectstore.NewMemoryStore()).
		Assemble(context.Background(), history, nil, scope, ImageReference)

	require.Len(t, content.Parts, 2)
	assert.Equal(t, "legacy", content.Parts[0].(core.TextPart).Text)
	assert.Equal(t, "content only", content.Parts[1].(core.TextPart).Text)
	assert.Equal(t, len("legacy")+len("content only"), chars)
}
