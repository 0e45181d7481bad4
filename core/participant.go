package core

// ConfigDoc is a participant configuration document as stored in the
// "agents" or "models" collection. Classification into a typed participant
// happens in the participant package.
type ConfigDoc map[string]any

// Platform tags where an agent definition executes.
type Platform string

const (
	// PlatformLocal marks an agent definition instantiated in process.
	PlatformLocal  Platform = ""
	PlatformVertex Platform = "vertex"
	PlatformA2A    Platform = "a2a"
)

// DeploymentStatusDeployed is the only deployment status that allows a
// Vertex agent to be queried.
const DeploymentStatusDeployed = "deployed"

// AgentType selects the local agent implementation built from a definition.
type AgentType string

const (
	AgentTypeModel      AgentType = "Agent"
	AgentTypeSequential AgentType = "SequentialAgent"
	AgentTypeLoop       AgentType = "LoopAgent"
	AgentTypeParallel   AgentType = "ParallelAgent"
)

// AgentDefinition is the declarative description of a local agent tree.
type AgentDefinition struct {
	Name              string            `json:"name" mapstructure:"name"`
	Description       string            `json:"description,omitempty" mapstructure:"description"`
	AgentType         AgentType         `json:"agentType" mapstructure:"agentType"`
	ModelID           string            `json:"modelId,omitempty" mapstructure:"modelId"`
	SystemInstruction string            `json:"systemInstruction,omitempty" mapstructure:"systemInstruction"`
	OutputKey         string            `json:"outputKey,omitempty" mapstructure:"outputKey"`
	MaxLoops          int               `json:"maxLoops,omitempty" mapstructure:"maxLoops"`
	ChildAgents       []AgentDefinition `json:"childAgents,omitempty" mapstructure:"childAgents"`
}

// GenerationParameters are optional sampling controls of a model config.
type GenerationParameters struct {
	Temperature     *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty" mapstructure:"maxOutputTokens"`
	TopP            *float64 `json:"topP,omitempty" mapstructure:"topP"`
	TopK            *int     `json:"topK,omitempty" mapstructure:"topK"`
}

// ModelConfig describes a raw model participant and the provider used to reach it.
type ModelConfig struct {
	ID                string               `json:"id,omitempty" mapstructure:"id"`
	Name              string               `json:"name,omitempty" mapstructure:"name"`
	Provider          string               `json:"provider" mapstructure:"provider"`
	ModelString       string               `json:"modelString" mapstructure:"modelString"`
	APIBase           string               `json:"litellm_api_base,omitempty" mapstructure:"litellm_api_base"`
	APIKey            string               `json:"litellm_api_key,omitempty" mapstructure:"litellm_api_key"`
	Parameters        GenerationParameters `json:"parameters" mapstructure:"parameters"`
	StopSequences     []string             `json:"stopSequences,omitempty" mapstructure:"stopSequences"`
	SystemInstruction string               `json:"systemInstruction,omitempty" mapstructure:"systemInstruction"`
	ProjectID         string               `json:"projectId,omitempty" mapstructure:"projectId"`
	Location          string               `json:"location,omitempty" mapstructure:"location"`
}

// AgentCapabilities is the subset of an A2A agent card capability block we act on.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming" mapstructure:"streaming"`
	PushNotifications bool `json:"pushNotifications" mapstructure:"pushNotifications"`
}

// AgentCard is the stored copy of a remote A2A agent's self description.
type AgentCard struct {
	Name         string            `json:"name" mapstructure:"name"`
	Description  string            `json:"description,omitempty" mapstructure:"description"`
	URL          string            `json:"url,omitempty" mapstructure:"url"`
	Version      string            `json:"version,omitempty" mapstructure:"version"`
	Capabilities AgentCapabilities `json:"capabilities" mapstructure:"capabilities"`
}
