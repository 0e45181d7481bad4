package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentlab/core"
)

// ParallelAgent coordinates the concurrent execution of multiple child agents.
//
// Each child runs on a cloned context labelled with its own branch. Events
// of all branches are funneled through one channel and forwarded to the
// parent in arrival order.
type ParallelAgent struct {
	BaseAgent
	children []core.Agent
	timeout  time.Duration
}

// NewParallelAgent creates a new parallel execution coordinator. A zero
// timeout leaves the deadline to the parent context.
func NewParallelAgent(name string, timeout time.Duration, children ...core.Agent) *ParallelAgent {
	p := &ParallelAgent{
		BaseAgent: NewBaseAgent(name),
		children:  children,
		timeout:   timeout,
	}
	_ = p.SetSubAgents(children...)
	return p
}

// createBranchCtxForSubAgent clones the parent context and assigns a branch
// path for the child agent ensuring isolation of pending deltas.
func (p *ParallelAgent) createBranchCtxForSubAgent(runCtx *core.RunContext, ctx context.Context, events chan<- core.Event, subAgent core.Agent) *core.RunContext {
	branchCtx := runCtx.WithBranch(buildBranchPath(runCtx.Branch, fmt.Sprintf("%s.%s", p.Name(), subAgent.Name())))
	branchCtx.Context = ctx
	branchCtx.Emit = events
	branchCtx.Resume = nil
	return branchCtx
}

// Run implements core.Agent launching all children concurrently. The first
// error encountered (after all complete) is returned; successful children
// continue even if siblings fail.
func (p *ParallelAgent) Run(runCtx *core.RunContext) error {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(runCtx.Context, p.timeout)
	} else {
		ctx, cancel = context.WithCancel(runCtx.Context)
	}
	defer cancel()

	events := make(chan core.Event, 16)
	errCh := make(chan error, len(p.children))

	// Branch contexts are cloned up front; forwarding mutates runCtx.
	branchCtxs := make([]*core.RunContext, len(p.children))
	for i, child := range p.children {
		branchCtxs[i] = p.createBranchCtxForSubAgent(runCtx, ctx, events, child)
	}

	var wg sync.WaitGroup
	for i, child := range p.children {
		wg.Add(1)
		go func(c core.Agent, branchCtx *core.RunContext) {
			defer wg.Done()

			if err := c.Run(branchCtx); err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", c.Name(), err)
			}
		}(child, branchCtxs[i])
	}

	go func() {
		wg.Wait()
		close(events)
	}()

	var forwardErr error
	for ev := range events {
		if forwardErr != nil {
			continue
		}
		if err := forward(runCtx, ev); err != nil {
			forwardErr = err
			cancel()
		}
	}
	close(errCh)

	if forwardErr != nil {
		return forwardErr
	}

	if len(errCh) > 0 {
		return <-errCh
	}

	return nil
}
