package flow

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

// BaseFlow is a single-turn request -> LLM flow with pluggable pre/post
// processors.
type BaseFlow struct {
	agent              FlowAgent
	requestProcessors  []RequestProcessor
	responseProcessors []ResponseProcessor
}

// NewBaseFlow creates a flow without processors.
func NewBaseFlow(agent FlowAgent) *BaseFlow {
	return &BaseFlow{agent: agent}
}

// AddRequestProcessor appends a request processor; order of registration defines execution order.
func (f *BaseFlow) AddRequestProcessor(processor RequestProcessor) {
	f.requestProcessors = append(f.requestProcessors, processor)
}

// AddResponseProcessor appends a response processor executed for each model chunk.
func (f *BaseFlow) AddResponseProcessor(processor ResponseProcessor) {
	f.responseProcessors = append(f.responseProcessors, processor)
}

// Execute launches the flow asynchronously.
func (f *BaseFlow) Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error) {
	eventChan := make(chan core.Event, 100)
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		defer close(eventChan)

		if err := f.runOnce(runCtx, eventChan); err != nil {
			errChan <- err
		}
	}()

	return eventChan, errChan
}

// runOnce performs one model turn.
func (f *BaseFlow) runOnce(runCtx *core.RunContext, eventChan chan<- core.Event) error {
	// Sequential siblings append to the session; refresh so the transcript is current.
	if runCtx.SessionStore != nil {
		if latest, err := runCtx.SessionStore.Get(runCtx.SessionID); err == nil && latest != nil {
			runCtx.Session = latest
		}
	}

	req := &model.Request{Stream: f.agent.IsStreamingEnabled()}

	for _, processor := range f.requestProcessors {
		if err := processor.ProcessRequest(runCtx, req, f.agent); err != nil {
			return fmt.Errorf("request processor %s failed: %w", processor.Name(), err)
		}
	}

	if err := runCtx.Budget.Spend(f.agent.GetName()); err != nil {
		return err
	}

	respCh, errCh := f.agent.GetLLM().Generate(runCtx.Context, *req)

	for resp := range respCh {
		ev := core.NewEvent(runCtx.RunID, f.agent.GetName())
		content := resp.Content
		ev.Content = &content
		partial := resp.Partial
		ev.Partial = &partial
		ev.FinishReason = resp.FinishReason

		if !resp.Partial {
			complete := true
			ev.TurnComplete = &complete
		}

		for _, processor := range f.responseProcessors {
			if err := processor.ProcessResponse(runCtx, &resp, &ev, f.agent); err != nil {
				return fmt.Errorf("response processor %s failed: %w", processor.Name(), err)
			}
		}

		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case eventChan <- ev:
		}
	}

	if err, ok := <-errCh; ok && err != nil {
		return err
	}

	return nil
}
