package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

func TestParseURI(t *testing.T) {
	u, err := ParseURI("gs://bucket/a/b.png")
	require.NoError(t, err)
	assert.Equal(t, URI{Scheme: "gs", Bucket: "bucket", Key: "a/b.png"}, u)
	assert.Equal(t, "gs://bucket/a/b.png", u.String())

	_, err = ParseURI("bucket/key")
	assert.Error(t, err)

	_, err = ParseURI("s3:///key")
	assert.Error(t, err)
}

func TestIsObjectURI(t *testing.T) {
	assert.True(t, IsObjectURI("gs://b/k"))
	assert.True(t, IsObjectURI("s3://b/k"))
	assert.False(t, IsObjectURI("https://example.com/k"))
	assert.False(t, IsObjectURI(""))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "gs://b/base/app/u/1", Join("gs://b/base/", "app", "/u/", "", "1"))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ok, err := s.Exists(ctx, "gs://b/k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "gs://b/k")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Write(ctx, "gs://b/k", []byte("data"), "text/plain"))

	obj, err := s.Read(ctx, "gs://b/k")
	require.NoError(t, err)
	assert.Equal(t, "data", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)

	obj.Data[0] = 'X'
	again, err := s.Read(ctx, "gs://b/k")
	require.NoError(t, err)
	assert.Equal(t, "data", string(again.Data))

	assert.Error(t, s.Write(ctx, "no-scheme", nil, ""))

	require.NoError(t, s.Delete(ctx, "gs://b/k"))
	ok, err = s.Exists(ctx, "gs://b/k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMux(t *testing.T) {
	ctx := context.Background()
	gcs := NewMemoryStore()
	s3 := NewMemoryStore()

	m := NewMux()
	m.Handle(SchemeGCS, gcs)
	m.Handle(SchemeS3, s3)

	require.NoError(t, m.Write(ctx, "gs://b/one", []byte("1"), "text/plain"))
	require.NoError(t, m.Write(ctx, "s3://b/two", []byte("2"), "text/plain"))

	ok, _ := gcs.Exists(ctx, "gs://b/one")
	assert.True(t, ok)
	ok, _ = s3.Exists(ctx, "gs://b/one")
	assert.False(t, ok)

	obj, err := m.Read(ctx, "s3://b/two")
	require.NoError(t, err)
	assert.Equal(t, "2", string(obj.Data))

	_, err = m.Read(ctx, "az://c/x")
	assert.ErrorContains(t, err, `scheme "az"`)

	url, err := m.PublicURL("gs://b/one")
	require.NoError(t, err)
	assert.Equal(t, "memory://b/one", url)
}
