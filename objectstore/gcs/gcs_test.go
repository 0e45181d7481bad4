package gcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	s := NewFromClient(nil)

	url, err := s.PublicURL("gs://bucket/chats/c1/image 1.png")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket/chats/c1/image%201.png", url)
}

func TestParseRejectsForeignScheme(t *testing.T) {
	_, err := parse("s3://bucket/key")
	assert.Error(t, err)

	_, err = parse("gs://bucket")
	assert.Error(t, err)
}
