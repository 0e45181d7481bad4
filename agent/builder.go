package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/model/provider"
	"github.com/hupe1980/agentlab/participant"
)

const maxAgentNameLength = 63

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// ModelFactory turns a merged model configuration into a model adapter.
type ModelFactory func(ctx context.Context, cfg core.ModelConfig) (model.Model, error)

// BuilderOptions configures a Builder.
type BuilderOptions struct {
	Logger logging.Logger
	// Models overrides adapter selection. Defaults to provider.New.
	Models ModelFactory
	// Suffix returns the disambiguator appended to agent names. Defaults to
	// four random hex characters.
	Suffix func() string
	// EnableStreaming requests partial responses from model agents.
	EnableStreaming bool
}

// Builder instantiates local agent trees from stored definitions.
type Builder struct {
	participants core.ParticipantStore
	logger       logging.Logger
	models       ModelFactory
	suffix       func() string
	streaming    bool
}

// NewBuilder creates a Builder that loads model configs from participants.
func NewBuilder(participants core.ParticipantStore, optFns ...func(o *BuilderOptions)) *Builder {
	opts := BuilderOptions{
		Logger:          logging.NoOpLogger{},
		Suffix:          func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:4] },
		EnableStreaming: true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	b := &Builder{
		participants: participants,
		logger:       logging.OrNoOp(opts.Logger),
		models:       opts.Models,
		suffix:       opts.Suffix,
		streaming:    opts.EnableStreaming,
	}

	if b.models == nil {
		b.models = func(ctx context.Context, cfg core.ModelConfig) (model.Model, error) {
			return provider.New(ctx, cfg, func(o *provider.Options) { o.Logger = b.logger })
		}
	}

	return b
}

// Build instantiates the agent tree described by def.
func (b *Builder) Build(ctx context.Context, def core.AgentDefinition) (core.Agent, error) {
	return b.build(ctx, def, "root", 0)
}

func (b *Builder) build(ctx context.Context, def core.AgentDefinition, parent string, index int) (core.Agent, error) {
	original := def.Name
	if original == "" {
		original = fmt.Sprintf("agent_cfg_%d", index)
	}
	name := SanitizeName(fmt.Sprintf("%s_%s_%s", original, parent, b.suffix()))

	b.logger.Info("Instantiating agent", "name", name, "type", def.AgentType, "config_name", original, "parent", parent, "index", index)

	switch def.AgentType {
	case core.AgentTypeModel:
		return b.buildModelAgent(ctx, def, name)

	case core.AgentTypeLoop:
		child, err := b.buildModelAgent(ctx, def, SanitizeName(name+"_looped_child_instance"))
		if err != nil {
			return nil, err
		}

		maxLoops := def.MaxLoops
		if maxLoops <= 0 {
			if def.MaxLoops < 0 {
				b.logger.Warn("maxLoops is not positive, using default", "agent", name, "maxLoops", def.MaxLoops, "default", DefaultMaxIters)
			}
			maxLoops = DefaultMaxIters
		}

		loop := NewLoopAgent(name, child, WithMaxIters(maxLoops))
		if def.Description != "" {
			loop.SetDescription(def.Description)
		}
		return loop, nil

	case core.AgentTypeSequential, core.AgentTypeParallel:
		if len(def.ChildAgents) == 0 {
			b.logger.Info("Composite agent has no child agents", "agent", original, "type", def.AgentType)
		}

		children := make([]core.Agent, 0, len(def.ChildAgents))
		for i, childDef := range def.ChildAgents {
			child, err := b.build(ctx, childDef, name, i)
			if err != nil {
				return nil, fmt.Errorf("error processing child agent for %q: %w", original, err)
			}
			children = append(children, child)
		}

		var composite interface {
			core.Agent
			SetDescription(string)
		}
		if def.AgentType == core.AgentTypeSequential {
			composite = NewSequentialAgent(name, children...)
		} else {
			composite = NewParallelAgent(name, 0, children...)
		}
		if def.Description != "" {
			composite.SetDescription(def.Description)
		}
		return composite, nil

	default:
		return nil, &core.ValidationError{Field: "agentType", Reason: fmt.Sprintf("invalid agentType %q for agent config %s", def.AgentType, original)}
	}
}

// buildModelAgent loads the definition's model config, merges the agent
// fields over it and creates the adapter.
func (b *Builder) buildModelAgent(ctx context.Context, def core.AgentDefinition, name string) (*ModelAgent, error) {
	if def.ModelID == "" {
		return nil, &core.ValidationError{Field: "modelId", Reason: fmt.Sprintf("agent %q is of type %s but is missing required modelId", def.Name, def.AgentType)}
	}

	cfg, err := b.loadModel(ctx, def.ModelID)
	if err != nil {
		return nil, err
	}

	instruction := InstructionFor(def, cfg)
	if instruction.Empty() {
		b.logger.Debug("Model agent has no instruction", "agent", name, "model", def.ModelID)
	}

	llm, err := b.models(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create model for agent %q: %w", def.Name, err)
	}

	return NewModelAgent(name, llm, func(o *ModelAgentOptions) {
		o.Instruction = instruction
		o.Description = def.Description
		o.OutputKey = def.OutputKey
		o.EnableStreaming = b.streaming
	}), nil
}

func (b *Builder) loadModel(ctx context.Context, modelID string) (core.ModelConfig, error) {
	doc, err := b.participants.GetModel(ctx, modelID)
	if err != nil {
		return core.ModelConfig{}, err
	}
	if doc == nil {
		return core.ModelConfig{}, &core.NotFoundError{Kind: "model", ID: modelID}
	}

	var cfg core.ModelConfig
	if err := participant.Decode(doc, &cfg); err != nil {
		return core.ModelConfig{}, &core.ValidationError{Field: "modelId", Reason: fmt.Sprintf("invalid model config %s: %v", modelID, err)}
	}
	cfg.ID = modelID

	return cfg, nil
}

// SanitizeName turns s into an identifier safe for agent names: characters
// outside [A-Za-z0-9_] become underscores, surrounding underscores are
// trimmed, a leading digit gets an underscore prefix and the result is
// capped at 63 characters.
func SanitizeName(s string) string {
	out := strings.Trim(invalidNameChars.ReplaceAllString(s, "_"), "_")
	if out == "" {
		return "agent_default_agent_name"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	if len(out) > maxAgentNameLength {
		out = out[:maxAgentNameLength]
	}
	return out
}
