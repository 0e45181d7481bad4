package strategy

import (
	"context"

	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/runner"
	"github.com/hupe1980/agentlab/session"
)

// DefaultMaxModelCalls bounds the model calls of one local run.
const DefaultMaxModelCalls = 100

// LocalOptions configures a Local strategy.
type LocalOptions struct {
	Logger logging.Logger
	// Models overrides model adapter selection.
	Models agent.ModelFactory
	// EnableStreaming asks models for partial responses. Every partial
	// becomes an output event.
	EnableStreaming bool
	MaxModelCalls   int
}

// Local instantiates an agent definition in process and runs it.
type Local struct {
	participants core.ParticipantStore
	opts         LocalOptions
	logger       logging.Logger
}

// NewLocal creates a Local strategy. participants serves the model configs
// referenced by agent definitions.
func NewLocal(participants core.ParticipantStore, optFns ...func(o *LocalOptions)) *Local {
	opts := LocalOptions{
		Logger:        logging.NoOpLogger{},
		MaxModelCalls: DefaultMaxModelCalls,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Local{participants: participants, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Run builds def, runs it on a fresh in-memory session and records every
// emitted event. Text accumulates from final events only.
func (l *Local) Run(ctx context.Context, def core.AgentDefinition, in Input, events core.EventLog) Result {
	var res Result

	builder := agent.NewBuilder(l.participants, func(o *agent.BuilderOptions) {
		o.Logger = l.logger
		o.Models = l.opts.Models
		o.EnableStreaming = l.opts.EnableStreaming
	})

	root, err := builder.Build(ctx, def)
	if err != nil {
		res.addError("Agent/Model run failed: %v", err)
		l.logger.Error("Failed to instantiate local agent", "agent", def.Name, "error", err)
		return res
	}

	sessions := session.NewInMemoryStore()
	sessionID := core.NewID()
	if _, err := sessions.Create(sessionID); err != nil {
		res.addError("Agent/Model run failed: %v", err)
		return res
	}

	var r core.Runner = runner.New(root, func(o *runner.Options) {
		o.SessionStore = sessions
		o.MaxModelCalls = l.opts.MaxModelCalls
		o.Logger = l.logger
	})

	runID, evCh, errCh, err := r.Run(ctx, sessionID, in.Content)
	if err != nil {
		res.addError("Agent/Model run failed: %v", err)
		l.logger.Error("Failed to start local run", "agent", root.Name(), "error", err)
		return res
	}

	l.logger.Info("Started local run", "agent", root.Name(), "run_id", runID, "user_id", in.UserID)

	for ev := range evCh {
		record(ctx, events, l.logger, ev.Record())
		if !ev.IsPartial() {
			res.FinalText += ev.Text()
		}
	}

	if err := <-errCh; err != nil {
		res.addError("Agent/Model run failed: %v", err)
		l.logger.Error("Local run failed", "agent", root.Name(), "run_id", runID, "error", err)
	}

	return res
}
