package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/session"
)

type mockFlowAgent struct {
	name        string
	llm         model.Model
	instruction string
	outputKey   string
	stream      bool
	maxHistory  int
}

func (m *mockFlowAgent) GetName() string          { return m.name }
func (m *mockFlowAgent) GetLLM() model.Model      { return m.llm }
func (m *mockFlowAgent) IsStreamingEnabled() bool { return m.stream }
func (m *mockFlowAgent) GetOutputKey() string     { return m.outputKey }
func (m *mockFlowAgent) MaxHistoryMessages() int  { return m.maxHistory }
func (m *mockFlowAgent) ResolveInstructions(_ *core.RunContext) (string, error) {
	return m.instruction, nil
}

func newTestRunContext(t *testing.T, text string, maxModelCalls int) *core.RunContext {
	t.Helper()
	store := session.NewInMemoryStore()
	sess, err := store.Create("test-session")
	require.NoError(t, err)

	user := core.NewTextContent("user", text)
	require.NoError(t, store.AppendEvent("test-session", core.NewUserContentEvent("run-1", &user)))

	return core.NewRunContext(
		context.Background(),
		"test-session",
		"run-1",
		core.AgentInfo{Name: "TestAgent", Type: "flow-test"},
		user,
		maxModelCalls,
		make(chan core.Event, 10),
		nil,
		sess,
		store,
		nil,
	)
}

func collect(t *testing.T, f Flow, runCtx *core.RunContext) ([]core.Event, error) {
	t.Helper()
	evCh, errCh := f.Execute(runCtx)
	var events []core.Event
	for ev := range evCh {
		events = append(events, ev)
	}
	return events, <-errCh
}

func TestSingleAgentFlow(t *testing.T) {
	llm := model.NewMockModel("test-model", "mock")
	llm.AddResponse("test message", "Hello!")

	agent := &mockFlowAgent{name: "test-agent", llm: llm, instruction: "You are {{.persona}}.", outputKey: "answer"}
	runCtx := newTestRunContext(t, "test message", 0)
	runCtx.SetState("persona", "terse")

	events, err := collect(t, NewSingleAgentFlow(agent), runCtx)
	require.NoError(t, err)
	require.Len(t, events, 1)

	final := events[0]
	assert.False(t, final.IsPartial())
	assert.Equal(t, "Hello!", final.Text())
	assert.Equal(t, "test-agent", final.Author)
	assert.Equal(t, "run-1", final.InvocationID)
	require.NotNil(t, final.TurnComplete)
	assert.True(t, *final.TurnComplete)
	assert.Equal(t, map[string]any{"answer": "Hello!"}, final.Actions.StateDelta)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "You are terse.", reqs[0].Instructions)
	require.Len(t, reqs[0].Contents, 2)
	assert.Equal(t, "system", reqs[0].Contents[0].Role)
	assert.Equal(t, "test message", reqs[0].Contents[1].Text())
}

func TestSingleAgentFlowStreaming(t *testing.T) {
	llm := model.NewMockModel("test-model", "mock")
	llm.AddResponse("hi", "abc")

	agent := &mockFlowAgent{name: "a", llm: llm, stream: true}
	events, err := collect(t, NewSingleAgentFlow(agent), newTestRunContext(t, "hi", 0))
	require.NoError(t, err)

	require.Len(t, events, 4)
	for _, ev := range events[:3] {
		assert.True(t, ev.IsPartial())
		assert.Nil(t, ev.Actions.StateDelta)
	}
	assert.Equal(t, "abc", events[3].Text())
	assert.True(t, llm.Requests()[0].Stream)
}

func TestSingleAgentFlowModelError(t *testing.T) {
	llm := model.NewMockModel("test-model", "mock")
	llm.AddResponse("hi", "ab")
	llm.FailWith(errors.New("boom"))

	events, err := collect(t, NewSingleAgentFlow(&mockFlowAgent{name: "a", llm: llm}), newTestRunContext(t, "hi", 0))
	assert.EqualError(t, err, "boom")
	assert.Len(t, events, 2)
}

func TestSingleAgentFlowModelLimit(t *testing.T) {
	llm := model.NewMockModel("test-model", "mock")
	runCtx := newTestRunContext(t, "hi", 1)
	require.NoError(t, runCtx.Budget.Spend("earlier"))

	_, err := collect(t, NewSingleAgentFlow(&mockFlowAgent{name: "a", llm: llm}), runCtx)
	assert.ErrorIs(t, err, core.ErrCallBudgetExhausted)
	assert.ErrorContains(t, err, "agent a hit the limit of 1 model calls per run")
	assert.Empty(t, llm.Requests())
}
