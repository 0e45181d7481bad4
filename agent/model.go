package agent

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/flow"
	"github.com/hupe1980/agentlab/model"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	Description        string
	EnableStreaming    bool
	OutputKey          string
	MaxHistoryMessages int
}

// ModelAgent answers one turn with a language model.
//
// The system instruction is rendered as a template over session state, the
// session transcript becomes the model input, and the final response text is
// saved under OutputKey when one is configured. Tools are never offered to
// the model.
type ModelAgent struct {
	BaseAgent
	llm                model.Model
	instruction        Instruction
	enableStreaming    bool
	outputKey          string
	maxHistoryMessages int
}

// NewModelAgent creates a model-backed agent.
//
// Defaults: streaming enabled, no output key, full history.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:     NewInstruction("You are a helpful assistant."),
		EnableStreaming: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		BaseAgent:          NewBaseAgent(name),
		llm:                llm,
		instruction:        opts.Instruction,
		enableStreaming:    opts.EnableStreaming,
		outputKey:          opts.OutputKey,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}

	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

// Run executes one model turn and forwards the resulting events.
func (a *ModelAgent) Run(runCtx *core.RunContext) error {
	evCh, errCh := flow.NewSingleAgentFlow(a).Execute(runCtx)

	for ev := range evCh {
		if err := forward(runCtx, ev); err != nil {
			// Drain so the flow goroutine can exit.
			for range evCh {
			}
			return err
		}
	}

	if err, ok := <-errCh; ok && err != nil {
		return fmt.Errorf("agent %s: %w", a.Name(), err)
	}

	return nil
}

// GetName implements flow.FlowAgent.
func (a *ModelAgent) GetName() string { return a.Name() }

// GetLLM implements flow.FlowAgent.
func (a *ModelAgent) GetLLM() model.Model { return a.llm }

// ResolveInstructions implements flow.FlowAgent.
func (a *ModelAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return a.instruction.Resolve(runCtx)
}

// InstructionOrigin reports where the agent's instruction came from.
func (a *ModelAgent) InstructionOrigin() InstructionOrigin { return a.instruction.Origin() }

// IsStreamingEnabled implements flow.FlowAgent.
func (a *ModelAgent) IsStreamingEnabled() bool { return a.enableStreaming }

// GetOutputKey implements flow.FlowAgent.
func (a *ModelAgent) GetOutputKey() string { return a.outputKey }

// MaxHistoryMessages implements flow.FlowAgent.
func (a *ModelAgent) MaxHistoryMessages() int { return a.maxHistoryMessages }

var _ flow.FlowAgent = (*ModelAgent)(nil)
