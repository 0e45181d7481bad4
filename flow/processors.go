package flow

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
	internalutil "github.com/hupe1980/agentlab/internal/util"
	"github.com/hupe1980/agentlab/model"
)

// InstructionsProcessor resolves the agent instruction and renders it as a
// template over the run state.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest sets req.Instructions.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instruction: %w", err)
	}

	runCtx.Logger.Debug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	req.Instructions, err = internalutil.RenderTemplate(instructions, runCtx.State())
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	return nil
}

// ContentsProcessor builds the request contents from the instructions and
// the session transcript.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest sets req.Contents.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	var contents []core.Content
	if req.Instructions != "" {
		contents = append(contents, core.NewTextContent("system", req.Instructions))
	}

	events := runCtx.Turns()
	if limit := agent.MaxHistoryMessages(); limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}

	for _, ev := range events {
		if ev.Content != nil && len(ev.Content.Parts) > 0 {
			contents = append(contents, *ev.Content)
		}
	}

	if len(contents) == 0 || contents[len(contents)-1].Role == "system" {
		// No transcript yet: fall back to the input of the run.
		contents = append(contents, runCtx.UserContent)
	}

	req.Contents = contents
	return nil
}

// OutputKeyProcessor stores the final response text under the agent's
// output key by attaching a state delta to the final event.
type OutputKeyProcessor struct{}

// NewOutputKeyProcessor creates a new output key processor.
func NewOutputKeyProcessor() *OutputKeyProcessor { return &OutputKeyProcessor{} }

// Name returns the processor's identifier.
func (p *OutputKeyProcessor) Name() string { return "output_key" }

// ProcessResponse implements ResponseProcessor.
func (p *OutputKeyProcessor) ProcessResponse(_ *core.RunContext, resp *model.Response, ev *core.Event, agent FlowAgent) error {
	key := agent.GetOutputKey()
	if key == "" || resp.Partial {
		return nil
	}
	if ev.Actions.StateDelta == nil {
		ev.Actions.StateDelta = map[string]any{}
	}
	ev.Actions.StateDelta[key] = resp.Content.Text()
	return nil
}
