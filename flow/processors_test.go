package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

func TestProcessorNames(t *testing.T) {
	assert.Equal(t, "instructions", NewInstructionsProcessor().Name())
	assert.Equal(t, "contents", NewContentsProcessor().Name())
	assert.Equal(t, "output_key", NewOutputKeyProcessor().Name())
}

func TestContentsProcessorHistoryLimit(t *testing.T) {
	runCtx := newTestRunContext(t, "first", 0)
	require.NoError(t, runCtx.SessionStore.AppendEvent(runCtx.SessionID, core.NewMessageEvent("a", "reply")))
	second := core.NewTextContent("user", "second")
	require.NoError(t, runCtx.SessionStore.AppendEvent(runCtx.SessionID, core.NewUserContentEvent("run-1", &second)))
	require.NoError(t, runCtx.RefreshSession())

	req := &model.Request{}
	require.NoError(t, NewContentsProcessor().ProcessRequest(runCtx, req, &mockFlowAgent{maxHistory: 2}))

	require.Len(t, req.Contents, 2)
	assert.Equal(t, "reply", req.Contents[0].Text())
	assert.Equal(t, "second", req.Contents[1].Text())
}

func TestContentsProcessorFallsBackToUserContent(t *testing.T) {
	runCtx := newTestRunContext(t, "input", 0)
	runCtx.Session = nil

	req := &model.Request{Instructions: "sys"}
	require.NoError(t, NewContentsProcessor().ProcessRequest(runCtx, req, &mockFlowAgent{}))

	require.Len(t, req.Contents, 2)
	assert.Equal(t, "input", req.Contents[1].Text())
}

func TestOutputKeyProcessorIgnoresPartials(t *testing.T) {
	ev := core.NewEvent("r", "a")
	resp := &model.Response{Partial: true, Content: core.NewTextContent("assistant", "x")}
	require.NoError(t, NewOutputKeyProcessor().ProcessResponse(nil, resp, &ev, &mockFlowAgent{outputKey: "k"}))
	assert.Nil(t, ev.Actions.StateDelta)
}
