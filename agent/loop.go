package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentlab/core"
)

// DefaultMaxIters is the iteration budget used when none is configured.
const DefaultMaxIters = 3

// LoopAgent executes a single child agent repeatedly.
//
// The loop ends after maxIters iterations, when the predicate accepts the
// final text of an iteration, or on cancellation. Session state is shared
// across iterations.
type LoopAgent struct {
	BaseAgent
	child       core.Agent
	maxIters    int
	interval    time.Duration
	stopOnError bool
	predicate   func(string) bool
}

// LoopOption defines a configuration function for customizing LoopAgent behavior.
type LoopOption func(*LoopAgent)

// NewLoopAgent constructs a looping coordinator around a child agent.
// Defaults: DefaultMaxIters iterations, no interval, stop on first error.
func NewLoopAgent(name string, child core.Agent, opts ...LoopOption) *LoopAgent {
	la := &LoopAgent{
		BaseAgent:   NewBaseAgent(name),
		child:       child,
		maxIters:    DefaultMaxIters,
		stopOnError: true,
	}

	for _, o := range opts {
		o(la)
	}

	if la.maxIters <= 0 {
		la.maxIters = DefaultMaxIters
	}

	_ = la.SetSubAgents(child)

	return la
}

// WithMaxIters sets the maximum number of iterations for the loop.
func WithMaxIters(n int) LoopOption {
	return func(l *LoopAgent) { l.maxIters = n }
}

// WithInterval sets the time delay between loop iterations.
func WithInterval(d time.Duration) LoopOption {
	return func(l *LoopAgent) { l.interval = d }
}

// WithContinueOnError keeps looping when an iteration fails.
func WithContinueOnError() LoopOption {
	return func(l *LoopAgent) { l.stopOnError = false }
}

// WithPredicate sets a termination condition evaluated against the final
// text of every iteration.
//
// Example:
//
//	WithPredicate(func(output string) bool {
//	    return strings.Contains(output, "COMPLETE")
//	})
func WithPredicate(pred func(string) bool) LoopOption {
	return func(l *LoopAgent) { l.predicate = pred }
}

// Run implements core.Agent.
func (l *LoopAgent) Run(runCtx *core.RunContext) error {
	for i := 0; i < l.maxIters; i++ {
		if err := runCtx.Err(); err != nil {
			return err
		}

		runCtx.Logger.Debug("loop.iteration.start", "agent", l.Name(), "iteration", i+1)

		output, err := l.runIteration(runCtx)
		if err != nil {
			if l.stopOnError {
				return fmt.Errorf("loop iteration %d failed for agent %s: %w", i+1, l.child.Name(), err)
			}
			runCtx.Logger.Warn("loop.iteration.failed", "agent", l.Name(), "iteration", i+1, "error", err)
		}

		if l.predicate != nil && l.predicate(output) {
			runCtx.Logger.Debug("loop.predicate.matched", "agent", l.Name(), "iteration", i+1)
			return nil
		}

		if l.interval > 0 && i < l.maxIters-1 {
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case <-time.After(l.interval):
			}
		}
	}

	runCtx.Logger.Debug("loop.completed", "agent", l.Name(), "iterations", l.maxIters)

	return nil
}

// runIteration runs the child once, relaying its events to the parent and
// the parent's resume signals back to the child. It returns the text of the
// last final event.
func (l *LoopAgent) runIteration(runCtx *core.RunContext) (string, error) {
	ctx, cancel := context.WithCancel(runCtx.Context)
	defer cancel()

	intercept := make(chan core.Event)
	resume := make(chan struct{}, 1)

	childCtx := runCtx.Clone()
	childCtx.Context = ctx
	childCtx.Emit = intercept
	childCtx.Resume = resume

	done := make(chan error, 1)
	go func() { done <- l.child.Run(childCtx) }()

	var output string
	for {
		select {
		case ev := <-intercept:
			if err := forward(runCtx, ev); err != nil {
				cancel()
				<-done
				return output, err
			}
			if !ev.IsPartial() {
				output = ev.Text()
				select {
				case resume <- struct{}{}:
				default:
				}
			}

		case err := <-done:
			return output, err
		}
	}
}
