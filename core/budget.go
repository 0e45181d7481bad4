package core

import (
	"fmt"
	"sync"
)

// CallBudget caps the model calls of one local run. Every agent of the run
// draws from the same budget, so a sequential or loop agent can not multiply
// the cost of a task. A max of zero means unlimited.
type CallBudget struct {
	mu   sync.Mutex
	max  int
	used int
}

// NewCallBudget returns a budget allowing max model calls.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Spend reserves one model call for agent. Once the run has used every call
// it fails with ErrCallBudgetExhausted and reserves nothing.
func (b *CallBudget) Spend(agent string) error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.used >= b.max {
		return fmt.Errorf("%w: agent %s hit the limit of %d model calls per run", ErrCallBudgetExhausted, agent, b.max)
	}
	b.used++

	return nil
}

// Used reports the calls spent so far.
func (b *CallBudget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Left reports the calls still available, or -1 for an unlimited budget.
func (b *CallBudget) Left() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max <= 0 {
		return -1
	}
	return b.max - b.used
}
