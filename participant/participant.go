// Package participant classifies the target of a task into one of four
// execution variants and loads the configuration each variant needs.
package participant

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/hupe1980/agentlab/core"
)

// Kind tells which collection a configuration document came from.
type Kind string

const (
	KindAgent Kind = "agent"
	KindModel Kind = "model"
)

// EphemeralAgentPrefix names the agent wrapped around a raw model run.
const EphemeralAgentPrefix = "ephemeral_model_run_"

// Config is the closed set of resolved participants: *LocalAgent,
// *DeployedEngine, *RemoteProtocol and *RawModel.
type Config interface {
	ParticipantID() string
	isConfig()
}

// LocalAgent is a declarative agent definition executed in process.
type LocalAgent struct {
	AgentID    string
	Definition core.AgentDefinition
}

// DeployedEngine is an agent running on Vertex AI Agent Engine.
type DeployedEngine struct {
	AgentID      string
	Name         string
	ResourceName string // projects/{p}/locations/{l}/reasoningEngines/{id}
}

// RemoteProtocol is an agent reachable over A2A JSON-RPC.
type RemoteProtocol struct {
	AgentID     string
	Name        string
	EndpointURL string
	Card        core.AgentCard
}

// RawModel is a bare model addressed by its model config. It runs through
// an ephemeral single-model agent.
type RawModel struct {
	ModelID    string
	Model      core.ModelConfig
	Definition core.AgentDefinition
}

func (c *LocalAgent) ParticipantID() string     { return c.AgentID }
func (c *DeployedEngine) ParticipantID() string { return c.AgentID }
func (c *RemoteProtocol) ParticipantID() string { return c.AgentID }
func (c *RawModel) ParticipantID() string       { return c.ModelID }

func (*LocalAgent) isConfig()     {}
func (*DeployedEngine) isConfig() {}
func (*RemoteProtocol) isConfig() {}
func (*RawModel) isConfig()       {}

// IsLocal reports whether the participant executes in process, in which
// case the prompt must carry image bytes inline.
func IsLocal(c Config) bool {
	switch c.(type) {
	case *LocalAgent, *RawModel:
		return true
	default:
		return false
	}
}

// agentDoc is the stored shape of an agents/{id} document.
type agentDoc struct {
	core.AgentDefinition `mapstructure:",squash"`

	Platform             string          `mapstructure:"platform"`
	DeploymentStatus     string          `mapstructure:"deploymentStatus"`
	VertexAIResourceName string          `mapstructure:"vertexAiResourceName"`
	EndpointURL          string          `mapstructure:"endpointUrl"`
	AgentCard            *core.AgentCard `mapstructure:"agentCard"`
}

// Classify turns a configuration document into a typed participant.
func Classify(kind Kind, id string, doc core.ConfigDoc) (Config, error) {
	if doc == nil {
		return nil, &core.NotFoundError{Kind: string(kind), ID: id}
	}

	switch kind {
	case KindModel:
		var mc core.ModelConfig
		if err := Decode(doc, &mc); err != nil {
			return nil, &core.ValidationError{Field: "modelId", Reason: fmt.Sprintf("invalid model config %s: %v", id, err)}
		}
		mc.ID = id

		return &RawModel{ModelID: id, Model: mc, Definition: EphemeralDefinition(id)}, nil

	case KindAgent:
		var ad agentDoc
		if err := Decode(doc, &ad); err != nil {
			return nil, &core.ValidationError{Field: "agentId", Reason: fmt.Sprintf("invalid agent config %s: %v", id, err)}
		}

		switch core.Platform(ad.Platform) {
		case core.PlatformA2A:
			if ad.EndpointURL == "" {
				return nil, &core.ValidationError{Field: "endpointUrl", Reason: fmt.Sprintf("A2A agent %s has no endpointUrl", id)}
			}
			rp := &RemoteProtocol{AgentID: id, Name: ad.Name, EndpointURL: ad.EndpointURL}
			if ad.AgentCard != nil {
				rp.Card = *ad.AgentCard
			}
			return rp, nil

		case core.PlatformVertex:
			if ad.DeploymentStatus != core.DeploymentStatusDeployed || ad.VertexAIResourceName == "" {
				return nil, &core.NotDeployedError{AgentID: id, Status: ad.DeploymentStatus}
			}
			return &DeployedEngine{AgentID: id, Name: ad.Name, ResourceName: ad.VertexAIResourceName}, nil

		case core.PlatformLocal:
			return &LocalAgent{AgentID: id, Definition: ad.AgentDefinition}, nil

		default:
			return nil, &core.ValidationError{Field: "platform", Reason: fmt.Sprintf("unsupported platform %q for agent %s", ad.Platform, id)}
		}

	default:
		return nil, fmt.Errorf("unknown participant kind %q", kind)
	}
}

// EphemeralDefinition returns the single-model agent wrapped around a raw model run.
func EphemeralDefinition(modelID string) core.AgentDefinition {
	short := modelID
	if len(short) > 6 {
		short = short[:6]
	}
	return core.AgentDefinition{
		Name:      EphemeralAgentPrefix + short,
		AgentType: core.AgentTypeModel,
		ModelID:   modelID,
	}
}

// Decode maps a loosely typed document onto out using mapstructure tags.
// Numbers stored as strings (and vice versa) are converted.
func Decode(doc core.ConfigDoc, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(doc))
}

// Resolver loads and classifies participants from a ParticipantStore.
type Resolver struct {
	store core.ParticipantStore
}

// NewResolver creates a Resolver.
func NewResolver(store core.ParticipantStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve classifies the participant addressed by exactly one of agentID or modelID.
func (r *Resolver) Resolve(ctx context.Context, agentID, modelID string) (Config, error) {
	switch {
	case agentID != "" && modelID != "":
		return nil, &core.ValidationError{Field: "agentId", Reason: "agentId and modelId are mutually exclusive"}

	case agentID != "":
		doc, err := r.store.GetAgent(ctx, agentID)
		if err != nil {
			return nil, err
		}
		return Classify(KindAgent, agentID, doc)

	case modelID != "":
		doc, err := r.store.GetModel(ctx, modelID)
		if err != nil {
			return nil, err
		}
		return Classify(KindModel, modelID, doc)

	default:
		return nil, &core.NotFoundError{Kind: "participant"}
	}
}
