package agent

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/model"
)

func TestLoopAgent_Defaults(t *testing.T) {
	child := newTextAgent("child", "x")
	loop := NewLoopAgent("loop", child, WithMaxIters(0))

	assert.Equal(t, DefaultMaxIters, loop.maxIters)
	assert.True(t, loop.stopOnError)
	assert.Equal(t, "loop", child.Parent().Name())
}

func TestLoopAgent_RunsMaxIters(t *testing.T) {
	child := newTextAgent("child", "again")
	events, _ := runWithRunner(t, NewLoopAgent("loop", child, WithMaxIters(4)), "go")

	assert.Equal(t, 4, child.runs)
	assert.Equal(t, []string{"again", "again", "again", "again"}, finalTexts(events))
}

func TestLoopAgent_PredicateStopsEarly(t *testing.T) {
	child := newTextAgent("child", "working", "DONE")
	loop := NewLoopAgent("loop", child, WithMaxIters(5), WithPredicate(func(out string) bool {
		return strings.Contains(out, "DONE")
	}))

	events, _ := runWithRunner(t, loop, "go")
	assert.Equal(t, 2, child.runs)
	assert.Equal(t, []string{"working", "DONE"}, finalTexts(events))
}

func TestLoopAgent_ModelChildSeesPreviousIteration(t *testing.T) {
	llm := model.NewMockModel("test", "mock")
	child := NewModelAgent("refiner", llm, func(o *ModelAgentOptions) { o.EnableStreaming = false })

	events, sess := runWithRunner(t, NewLoopAgent("loop", child, WithMaxIters(2)), "seed")
	require.Len(t, finalTexts(events), 2)

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Contents[len(reqs[1].Contents)-1]
	assert.Equal(t, "Mock response to: seed", last.Text())
	assert.Len(t, sess.Turns(), 3)
}

func TestLoopAgent_StopOnError(t *testing.T) {
	runCtx, _ := newTestRunContext(t)
	child := NewMockAgent("child")
	child.On("Run", mock.Anything).Return(errors.New("fail")).Once()

	err := NewLoopAgent("loop", child, WithMaxIters(3)).Run(runCtx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop iteration 1 failed")
	child.AssertNumberOfCalls(t, "Run", 1)
}

func TestLoopAgent_ContinueOnError(t *testing.T) {
	runCtx, _ := newTestRunContext(t)
	child := NewMockAgent("child")
	child.On("Run", mock.Anything).Return(errors.New("fail"))

	require.NoError(t, NewLoopAgent("loop", child, WithMaxIters(3), WithContinueOnError()).Run(runCtx))
	child.AssertNumberOfCalls(t, "Run", 3)
}
