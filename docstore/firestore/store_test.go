package firestore

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

func paths(updates []firestore.Update) []string {
	out := make([]string, 0, len(updates))
	for _, u := range updates {
		out = append(out, u.Path)
	}
	return out
}

func TestRunUpdates_Final(t *testing.T) {
	updates, err := runUpdates(core.RunStatusRunning, core.RunUpdate{
		Status:            core.StatusPtr(core.RunStatusCompleted),
		Content:           core.StringPtr("hello"),
		FinalResponseText: core.StringPtr("hello"),
		QueryErrorDetails: []string{},
		Complete:          true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run.status",
		"content",
		"run.finalResponseText",
		"run.queryErrorDetails",
		"run.completedTimestamp",
	}, paths(updates))
	assert.Equal(t, "completed", updates[0].Value)
	assert.Equal(t, firestore.ServerTimestamp, updates[4].Value)
}

func TestRunUpdates_RejectsRegression(t *testing.T) {
	_, err := runUpdates(core.RunStatusError, core.RunUpdate{Status: core.StatusPtr(core.RunStatusRunning)})
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestRunUpdates_AppendErrorDetailsMergesWithReplacement(t *testing.T) {
	updates, err := runUpdates(core.RunStatusRunning, core.RunUpdate{
		QueryErrorDetails:  []string{"a"},
		AppendErrorDetails: []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, []string{"a", "b"}, updates[0].Value)
}

func TestRunUpdates_ProcessedArtifacts(t *testing.T) {
	updates, err := runUpdates(core.RunStatusRunning, core.RunUpdate{
		ProcessedArtifacts:  []core.ArtifactRef{{Filename: "text-abc-notes", Version: 0, OriginalName: "notes", Type: core.ContextItemText}},
		InputCharacterCount: core.IntPtr(42),
	})
	require.NoError(t, err)
	require.Len(t, updates, 2)

	refs, ok := updates[0].Value.([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, "text-abc-notes", refs[0]["filename"])
	assert.Equal(t, 42, updates[1].Value)
}

func TestRunUpdates_Empty(t *testing.T) {
	updates, err := runUpdates(core.RunStatusRunning, core.RunUpdate{})
	require.NoError(t, err)
	assert.Empty(t, updates)
}
