package core

// Agent is implemented by every locally executed agent.
//
// Agents receive a RunContext, emit events through it and return when their
// turn is done. Composite agents (sequential, loop, parallel) coordinate the
// Run calls of their children on the same or a cloned context.
//
// Implementations must respect context cancellation.
type Agent interface {
	Name() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
	Description() string
}

// AgentInfo carries identifying details about an agent used in contexts & events.
type AgentInfo struct{ Name, Type string }
