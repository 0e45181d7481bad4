// Package agent contains the in-process agent implementations used for local
// runs and the Builder that instantiates them from stored definitions.
//
// The package focuses on three concerns:
//
//  1. Base lifecycle + hierarchy plumbing (BaseAgent)
//  2. Coordination patterns (SequentialAgent, ParallelAgent, LoopAgent)
//  3. The model-backed conversational agent (ModelAgent)
//
// Execution model:
//   - An agent's Run receives a *core.RunContext (shared or cloned)
//   - Composite agents coordinate child Runs
//   - ModelAgent drives one model turn through the flow package and emits
//     the resulting events
package agent
