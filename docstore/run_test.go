package docstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

func TestApplyRunUpdate_MonotonicStatus(t *testing.T) {
	msg := &core.Message{ID: "a1"}
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, ApplyRunUpdate(msg, core.RunUpdate{Status: core.StatusPtr(core.RunStatusRunning)}, now))
	assert.Equal(t, core.RunStatusRunning, msg.Run.Status)

	require.NoError(t, ApplyRunUpdate(msg, core.RunUpdate{
		Status:            core.StatusPtr(core.RunStatusCompleted),
		Content:           core.StringPtr("done"),
		FinalResponseText: core.StringPtr("done"),
		Complete:          true,
	}, now))
	assert.Equal(t, "done", msg.Content)
	require.NotNil(t, msg.Run.CompletedTimestamp)
	assert.True(t, now.Equal(*msg.Run.CompletedTimestamp))

	err := ApplyRunUpdate(msg, core.RunUpdate{
		Status:  core.StatusPtr(core.RunStatusRunning),
		Content: core.StringPtr("changed"),
	}, now)
	assert.True(t, errors.Is(err, core.ErrInvalidTransition))
	assert.Equal(t, "done", msg.Content)
}

func TestApplyRunUpdate_ErrorDetails(t *testing.T) {
	msg := &core.Message{ID: "a1"}

	require.NoError(t, ApplyRunUpdate(msg, core.RunUpdate{AppendErrorDetails: []string{"x", "y"}}, time.Now()))
	require.NoError(t, ApplyRunUpdate(msg, core.RunUpdate{AppendErrorDetails: []string{"y", "z"}}, time.Now()))
	assert.Equal(t, []string{"x", "y", "z"}, msg.Run.QueryErrorDetails)

	require.NoError(t, ApplyRunUpdate(msg, core.RunUpdate{QueryErrorDetails: []string{}}, time.Now()))
	assert.Empty(t, msg.Run.QueryErrorDetails)
}

func TestUnionEvents(t *testing.T) {
	existing := []core.OutputEvent{{"type": "a", "eventIndex": 0}}

	merged, err := UnionEvents(existing,
		core.OutputEvent{"type": "a", "eventIndex": 0},
		core.OutputEvent{"type": "a", "eventIndex": 1},
	)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
	assert.Equal(t, 1, merged[1]["eventIndex"])
}

func TestUnionEvents_NumericTypesCompareEqual(t *testing.T) {
	// JSON decoded documents carry float64 numbers.
	existing := []core.OutputEvent{{"eventIndex": float64(3)}}

	merged, err := UnionEvents(existing, core.OutputEvent{"eventIndex": 3})
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestDecodeMessage(t *testing.T) {
	ts := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	msg, err := DecodeMessage("m1", map[string]any{
		"parentMessageId": "m0",
		"participant":     "user:u1",
		"content":         "hi",
		"parts": []any{
			map[string]any{"type": "text", "content": "hi"},
			map[string]any{"type": "image", "storageUrl": "gs://b/k.png"},
		},
		"run": map[string]any{
			"status":              "running",
			"inputCharacterCount": int64(12),
			"completedTimestamp":  ts,
			"rawStuffedContextItems": []any{
				map[string]any{"type": "text", "name": "notes", "content": "n"},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "m0", msg.ParentMessageID)
	assert.True(t, msg.IsUser())
	require.Len(t, msg.Parts, 2)
	assert.Equal(t, "gs://b/k.png", msg.Parts[1].StorageURL)
	require.NotNil(t, msg.Run)
	assert.Equal(t, core.RunStatusRunning, msg.Run.Status)
	assert.Equal(t, 12, msg.Run.InputCharacterCount)
	require.NotNil(t, msg.Run.CompletedTimestamp)
	assert.True(t, ts.Equal(*msg.Run.CompletedTimestamp))
	require.Len(t, msg.Run.RawStuffedContextItems, 1)
	assert.Equal(t, core.ContextItemText, msg.Run.RawStuffedContextItems[0].Type)
}

func TestDecodeContextItems_SkipsNonObjects(t *testing.T) {
	items := DecodeContextItems([]any{
		"garbage",
		map[string]any{"type": "image", "storageUrl": "gs://b/i.png", "mimeType": "image/jpeg"},
	})
	require.Len(t, items, 1)
	assert.Equal(t, "image/jpeg", items[0].MimeType)
}
