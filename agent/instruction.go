package agent

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
)

// InstructionOrigin records which participant document supplied the
// instruction of a model agent.
type InstructionOrigin string

const (
	InstructionFromAgent    InstructionOrigin = "agent"
	InstructionFromModel    InstructionOrigin = "model"
	InstructionFromCode     InstructionOrigin = "code"
	InstructionFromComputed InstructionOrigin = "computed"
)

// Instruction is the system prompt template of a ModelAgent. The text may use
// text/template actions over the run state; rendering happens in the flow,
// after Resolve.
type Instruction struct {
	text    string
	origin  InstructionOrigin
	compute func(*core.RunContext) (string, error)
}

// InstructionFor picks the instruction of a configured model agent. A
// non-empty instruction on the agent document overrides the one of its model
// config.
func InstructionFor(def core.AgentDefinition, cfg core.ModelConfig) Instruction {
	switch {
	case def.SystemInstruction != "":
		return Instruction{text: def.SystemInstruction, origin: InstructionFromAgent}
	case cfg.SystemInstruction != "":
		return Instruction{text: cfg.SystemInstruction, origin: InstructionFromModel}
	default:
		return Instruction{}
	}
}

func NewInstruction(text string) Instruction {
	return Instruction{text: text, origin: InstructionFromCode}
}

// NewComputedInstruction derives the template from the run, e.g. from the
// task prompt.
func NewComputedInstruction(fn func(*core.RunContext) (string, error)) Instruction {
	return Instruction{origin: InstructionFromComputed, compute: fn}
}

// Origin is empty when neither document carried an instruction.
func (i Instruction) Origin() InstructionOrigin { return i.origin }

func (i Instruction) Empty() bool { return i.text == "" && i.compute == nil }

// Resolve returns the unrendered template for the run.
func (i Instruction) Resolve(runCtx *core.RunContext) (string, error) {
	if i.compute == nil {
		return i.text, nil
	}

	text, err := i.compute(runCtx)
	if err != nil {
		return "", fmt.Errorf("compute instruction for agent %s: %w", runCtx.GetAgentName(), err)
	}

	return text, nil
}
