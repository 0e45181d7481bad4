package agent

import (
	"fmt"

	"github.com/hupe1980/agentlab/core"
)

// SequentialAgent coordinates the execution of multiple child agents in sequence.
//
// Children share the run context, so session state written by one step
// (for example through an output key) is visible to the next.
type SequentialAgent struct {
	BaseAgent
	children []core.Agent
}

// NewSequentialAgent creates a new sequential execution coordinator.
func NewSequentialAgent(name string, children ...core.Agent) *SequentialAgent {
	s := &SequentialAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
	}
	_ = s.SetSubAgents(children...)
	return s
}

// Run implements core.Agent. It executes each child agent in order; errors
// stop further processing immediately.
func (s *SequentialAgent) Run(runCtx *core.RunContext) error {
	for _, child := range s.children {
		if err := runCtx.Err(); err != nil {
			return err
		}

		if err := child.Run(runCtx); err != nil {
			return fmt.Errorf("sequential execution failed at agent %s: %w", child.Name(), err)
		}
	}

	return nil
}
