package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Get("s1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.Create("s1")
	require.NoError(t, err)

	require.NoError(t, s.AppendEvent("s1", core.NewMessageEvent("bot", "hi")))
	require.NoError(t, s.ApplyDelta("s1", map[string]any{"k": "v"}))

	sess, err := s.Get("s1")
	require.NoError(t, err)
	assert.Len(t, sess.GetEvents(), 1)

	v, ok := sess.GetState("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	// Clones do not leak mutations back into the store.
	sess.SetState("k", "changed")
	again, err := s.Get("s1")
	require.NoError(t, err)
	v, _ = again.GetState("k")
	assert.Equal(t, "v", v)

	assert.ErrorIs(t, s.AppendEvent("missing", core.Event{}), core.ErrNotFound)
	assert.ErrorIs(t, s.ApplyDelta("missing", map[string]any{}), core.ErrNotFound)

	_, err = s.Create("")
	assert.Error(t, err)
}
