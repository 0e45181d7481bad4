package strategy

import (
	"context"
	"encoding/json"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/participant"
	"github.com/hupe1980/agentlab/vertex"
)

// EngineClient is the part of the Agent Engine API a Deployed strategy uses.
type EngineClient interface {
	CreateSession(ctx context.Context, resource, userID string) (string, error)
	StreamQuery(ctx context.Context, resource, userID, sessionID, message string) (*vertex.Stream, error)
}

// DeployedOptions configures a Deployed strategy.
type DeployedOptions struct {
	Logger logging.Logger
}

// Deployed runs a turn against an agent deployed to Vertex AI Agent Engine.
type Deployed struct {
	client EngineClient
	logger logging.Logger
}

// NewDeployed creates a Deployed strategy using client.
func NewDeployed(client EngineClient, optFns ...func(o *DeployedOptions)) *Deployed {
	opts := DeployedOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Deployed{client: client, logger: logging.OrNoOp(opts.Logger)}
}

// Run opens a session, streams the query and records every event verbatim.
func (d *Deployed) Run(ctx context.Context, p *participant.DeployedEngine, in Input, events core.EventLog) Result {
	var res Result

	message := DeployedMessage(in.Content)
	if message == "" {
		d.logger.Warn("No message text found for deployed agent run, sending an empty message", "agent", p.AgentID)
	}

	sessionID, err := d.client.CreateSession(ctx, p.ResourceName, in.UserID)
	if err != nil {
		res.addError("Vertex run failed: %v", err)
		d.logger.Error("Vertex session creation failed", "resource", p.ResourceName, "error", err)
		return res
	}

	stream, err := d.client.StreamQuery(ctx, p.ResourceName, in.UserID, sessionID, message)
	if err != nil {
		res.addError("Vertex run failed: %v", err)
		d.logger.Error("Vertex stream query failed", "resource", p.ResourceName, "error", err)
		return res
	}
	defer stream.Close()

	for stream.Next() {
		raw := stream.Current()

		var ev core.OutputEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			// Non-object events (strings, arrays) are kept under a raw key.
			var v any
			_ = json.Unmarshal(raw, &v)
			ev = core.OutputEvent{"raw": v}
		}
		record(ctx, events, d.logger, ev)

		res.FinalText += vertex.EventText(raw)
	}

	if err := stream.Err(); err != nil {
		res.addError("Vertex run failed: %v", err)
		d.logger.Error("Vertex stream ended with an error", "resource", p.ResourceName, "error", err)
	}

	return res
}
