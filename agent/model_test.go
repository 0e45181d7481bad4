package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

func TestModelAgent_NewAgent(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	a := NewModelAgent("Test Agent", llm)

	assert.Equal(t, llm, a.GetLLM())
	assert.Equal(t, "Test Agent", a.GetName())
	assert.True(t, a.IsStreamingEnabled())
	assert.Empty(t, a.GetOutputKey())
	assert.Zero(t, a.MaxHistoryMessages())
}

func TestModelAgent_Options(t *testing.T) {
	a := NewModelAgent("writer", model.NewMockModel("test", "mock"), func(o *ModelAgentOptions) {
		o.Instruction = NewInstruction("Write {{.topic}}")
		o.Description = "Writes things"
		o.EnableStreaming = false
		o.OutputKey = "draft"
		o.MaxHistoryMessages = 4
	})

	runCtx, _ := newTestRunContext(t)
	inst, err := a.ResolveInstructions(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "Write {{.topic}}", inst)
	assert.Equal(t, "Writes things", a.Description())
	assert.False(t, a.IsStreamingEnabled())
	assert.Equal(t, "draft", a.GetOutputKey())
	assert.Equal(t, 4, a.MaxHistoryMessages())
}

func TestModelAgent_RunStreaming(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.AddResponse("hi", "abc")

	events, sess := runWithRunner(t, NewModelAgent("helper", llm, func(o *ModelAgentOptions) {
		o.OutputKey = "answer"
	}), "hi")

	require.Len(t, events, 4)
	for _, ev := range events[:3] {
		assert.True(t, ev.IsPartial())
	}
	assert.Equal(t, []string{"abc"}, finalTexts(events))

	v, ok := sess.GetState("answer")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestModelAgent_RendersInstructionOverState(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	a := NewModelAgent("helper", llm, func(o *ModelAgentOptions) {
		o.Instruction = NewInstruction("Persona: {{.persona}}")
		o.EnableStreaming = false
	})

	runCtx, emit := newTestRunContext(t)
	runCtx.SetState("persona", "pirate")

	require.NoError(t, a.Run(runCtx))
	require.Len(t, emit, 1)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Persona: pirate", reqs[0].Instructions)
	assert.False(t, reqs[0].Stream)
}

func TestModelAgent_ModelError(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	llm.FailWith(errors.New("quota"))
	a := NewModelAgent("helper", llm)

	runCtx, emit := newTestRunContext(t)
	err := a.Run(runCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
	assert.Contains(t, err.Error(), "helper")

	close(emit)
	for ev := range emit {
		assert.True(t, ev.IsPartial())
	}
}

var _ core.Agent = (*ModelAgent)(nil)
