package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "lab", "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Messages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutMessage(ctx, "c1", core.Message{ID: "u1", Participant: "user:x", Content: "hi"}))
	require.NoError(t, s.PutMessage(ctx, "c1", core.Message{ID: "a1", ParentMessageID: "u1", Participant: "agent-1"}))

	msg, err := s.GetMessage(ctx, "c1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", msg.ParentMessageID)

	msgs, err := s.ListMessages(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	_, err = s.GetMessage(ctx, "c1", "zz")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_UpdateRunMonotonic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.PutMessage(ctx, "c1", core.Message{ID: "a1"}))

	require.NoError(t, s.UpdateRun(ctx, "c1", "a1", core.RunUpdate{Status: core.StatusPtr(core.RunStatusRunning)}))
	require.NoError(t, s.UpdateRun(ctx, "c1", "a1", core.RunUpdate{
		Status:             core.StatusPtr(core.RunStatusCompleted),
		Content:            core.StringPtr("answer"),
		FinalResponseText:  core.StringPtr("answer"),
		AppendErrorDetails: []string{},
		Complete:           true,
	}))

	err := s.UpdateRun(ctx, "c1", "a1", core.RunUpdate{Status: core.StatusPtr(core.RunStatusRunning)})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	msg, err := s.GetMessage(ctx, "c1", "a1")
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusCompleted, msg.Run.Status)
	assert.Equal(t, "answer", msg.Content)
	assert.NotNil(t, msg.Run.CompletedTimestamp)
}

func TestStore_AppendOutputEventsUnion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.PutMessage(ctx, "c1", core.Message{ID: "a1"}))

	log := core.NewRunEventLog(s, "c1", "a1")
	require.NoError(t, log.Append(ctx, core.OutputEvent{"type": "same"}, core.OutputEvent{"type": "same"}))

	// A retried delivery of an already stored record is absorbed.
	require.NoError(t, s.AppendOutputEvents(ctx, "c1", "a1", core.OutputEvent{"type": "same", core.EventIndexKey: 0}))

	msg, err := s.GetMessage(ctx, "c1", "a1")
	require.NoError(t, err)
	require.Len(t, msg.Run.OutputEvents, 2)
	assert.Equal(t, float64(0), msg.Run.OutputEvents[0][core.EventIndexKey])
	assert.Equal(t, float64(1), msg.Run.OutputEvents[1][core.EventIndexKey])
}

func TestStore_Participants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutAgent(ctx, "ag", core.ConfigDoc{"platform": "a2a", "endpointUrl": "http://x"}))
	require.NoError(t, s.PutModel(ctx, "mo", core.ConfigDoc{"provider": "anthropic"}))

	doc, err := s.GetAgent(ctx, "ag")
	require.NoError(t, err)
	assert.Equal(t, "a2a", doc["platform"])

	doc, err = s.GetModel(ctx, "mo")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", doc["provider"])

	_, err = s.GetModel(ctx, "ag")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "model", nf.Kind)
}
