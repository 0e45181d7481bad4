package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/session"
)

func drain(t *testing.T, events <-chan core.Event, errs <-chan error) ([]core.Event, error) {
	t.Helper()
	var out []core.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out, <-errs
}

func TestRunner_PersistsFinalEventsAndState(t *testing.T) {
	store := session.NewInMemoryStore()
	_, err := store.Create("s1")
	require.NoError(t, err)

	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("hi", "hello there")

	a := agent.NewModelAgent("helper", llm, func(o *agent.ModelAgentOptions) {
		o.OutputKey = "answer"
	})

	r := New(a, func(o *Options) { o.SessionStore = store })

	runID, events, errs, err := r.Run(context.Background(), "s1", core.NewTextContent("user", "hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	got, runErr := drain(t, events, errs)
	require.NoError(t, runErr)

	var finals []core.Event
	for _, ev := range got {
		if !ev.IsPartial() {
			finals = append(finals, ev)
		}
	}
	require.Len(t, finals, 1)
	assert.Equal(t, "hello there", finals[0].Text())
	assert.Equal(t, runID, finals[0].InvocationID)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	history := sess.Turns()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Author)
	assert.Equal(t, "hello there", history[1].Text())

	v, ok := sess.GetState("answer")
	require.True(t, ok)
	assert.Equal(t, "hello there", v)
}

func TestRunner_AgentErrorIsReported(t *testing.T) {
	store := session.NewInMemoryStore()
	_, err := store.Create("s1")
	require.NoError(t, err)

	llm := model.NewMockModel("mock", "mock")
	llm.AddResponse("hi", "partial")
	llm.FailWith(errors.New("boom"))

	r := New(agent.NewModelAgent("helper", llm), func(o *Options) { o.SessionStore = store })

	_, events, errs, err := r.Run(context.Background(), "s1", core.NewTextContent("user", "hi"))
	require.NoError(t, err)

	got, runErr := drain(t, events, errs)
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), "boom")
	assert.NotEmpty(t, got)
	for _, ev := range got {
		assert.True(t, ev.IsPartial())
	}
}

func TestRunner_UnknownSession(t *testing.T) {
	r := New(agent.NewModelAgent("helper", model.NewMockModel("mock", "mock")))

	_, _, _, err := r.Run(context.Background(), "missing", core.NewTextContent("user", "hi"))
	require.Error(t, err)

	var nf *core.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRunner_CancelUnknownRun(t *testing.T) {
	r := New(agent.NewModelAgent("helper", model.NewMockModel("mock", "mock")))
	assert.Error(t, r.Cancel("nope"))
}

func TestRunner_ModelCallLimit(t *testing.T) {
	store := session.NewInMemoryStore()
	_, err := store.Create("s1")
	require.NoError(t, err)

	llm := model.NewMockModel("mock", "mock")
	seq := agent.NewSequentialAgent("pipeline",
		agent.NewModelAgent("first", llm),
		agent.NewModelAgent("second", llm),
	)

	r := New(seq, func(o *Options) {
		o.SessionStore = store
		o.MaxModelCalls = 1
	})

	_, events, errs, err := r.Run(context.Background(), "s1", core.NewTextContent("user", "hi"))
	require.NoError(t, err)

	_, runErr := drain(t, events, errs)
	require.ErrorIs(t, runErr, core.ErrCallBudgetExhausted)
	assert.Len(t, llm.Requests(), 1)
}
