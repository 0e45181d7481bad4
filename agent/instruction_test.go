package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

func TestInstructionFor(t *testing.T) {
	tests := []struct {
		name       string
		agent      string
		model      string
		wantText   string
		wantOrigin InstructionOrigin
	}{
		{name: "agent overrides model", agent: "Answer as {{.persona}}", model: "Be terse", wantText: "Answer as {{.persona}}", wantOrigin: InstructionFromAgent},
		{name: "model fallback", model: "Be terse", wantText: "Be terse", wantOrigin: InstructionFromModel},
		{name: "neither", wantText: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCtx, _ := newTestRunContext(t)
			inst := InstructionFor(
				core.AgentDefinition{SystemInstruction: tt.agent},
				core.ModelConfig{SystemInstruction: tt.model},
			)

			got, err := inst.Resolve(runCtx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got)
			assert.Equal(t, tt.wantOrigin, inst.Origin())
			assert.Equal(t, tt.wantText == "", inst.Empty())
		})
	}
}

func TestComputedInstruction(t *testing.T) {
	runCtx, _ := newTestRunContext(t)
	inst := NewComputedInstruction(func(rc *core.RunContext) (string, error) {
		return "Reply to: " + rc.UserContent.Text(), nil
	})

	assert.Equal(t, InstructionFromComputed, inst.Origin())
	assert.False(t, inst.Empty())

	got, err := inst.Resolve(runCtx)
	require.NoError(t, err)
	assert.Equal(t, "Reply to: hello", got)
}

func TestComputedInstructionError(t *testing.T) {
	runCtx, _ := newTestRunContext(t)
	errNoPersona := errors.New("no persona in state")

	_, err := NewComputedInstruction(func(*core.RunContext) (string, error) {
		return "", errNoPersona
	}).Resolve(runCtx)

	require.ErrorIs(t, err, errNoPersona)
	assert.EqualError(t, err, "compute instruction for agent TestAgent: no persona in state")
}
