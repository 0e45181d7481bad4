// Package flow provides the execution pipeline behind model-backed agents.
//
// A flow turns the agent's configuration and the session transcript into a
// model request through request processors, calls the model once and relays
// its responses as events, letting response processors annotate them.
package flow

import (
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

// Flow defines the interface for agent execution flows.
//
// Execute returns a channel of events closed when the turn ends and an error
// channel carrying at most one terminal error.
type Flow interface {
	Execute(runCtx *core.RunContext) (<-chan core.Event, <-chan error)
}

// FlowAgent is the view of an agent a flow needs.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// IsStreamingEnabled returns whether partial responses are requested.
	IsStreamingEnabled() bool

	// GetOutputKey returns the session state key for saving responses.
	GetOutputKey() string

	// MaxHistoryMessages bounds the transcript sent to the model. Zero
	// sends everything.
	MaxHistoryMessages() int
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	Name() string
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor inspects a model response and may annotate the event
// built from it before emission.
type ResponseProcessor interface {
	Name() string
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, ev *core.Event, agent FlowAgent) error
}
