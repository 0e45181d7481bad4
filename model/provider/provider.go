// Package provider selects and configures a model adapter from a stored
// model configuration.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/model/anthropic"
	"github.com/hupe1980/agentlab/model/gemini"
	"github.com/hupe1980/agentlab/model/openai"
)

// Provider identifiers as stored in model configs.
const (
	OpenAI           = "openai"
	OpenAICompatible = "openai_compatible"
	Anthropic        = "anthropic"
	GoogleAIStudio   = "google_ai_studio"
	GoogleVertex     = "google_vertex"
)

type backend struct {
	prefix    string
	apiKeyEnv string
}

var backends = map[string]backend{
	OpenAI:           {prefix: "openai", apiKeyEnv: "OPENAI_API_KEY"},
	OpenAICompatible: {prefix: "openai"},
	Anthropic:        {prefix: "anthropic", apiKeyEnv: "ANTHROPIC_API_KEY"},
	GoogleAIStudio:   {prefix: "gemini", apiKeyEnv: "GEMINI_API_KEY"},
	GoogleVertex:     {prefix: "vertex_ai"},
}

// Options configures New.
type Options struct {
	// Getenv resolves api key and project fallbacks. Defaults to os.Getenv.
	Getenv func(string) string
	Logger logging.Logger
}

// New returns the adapter serving cfg.Provider.
//
// An explicit litellm_api_key wins over the provider's environment variable;
// litellm_api_base overrides the endpoint. A routing prefix such as
// "openai/" on the model string is stripped.
func New(ctx context.Context, cfg core.ModelConfig, optFns ...func(o *Options)) (model.Model, error) {
	opts := Options{Getenv: os.Getenv, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if cfg.Provider == "" {
		return nil, &core.ValidationError{Field: "provider", Reason: "model config is missing provider"}
	}

	sp, ok := backends[cfg.Provider]
	if !ok {
		return nil, &core.ValidationError{Field: "provider", Reason: fmt.Sprintf("invalid provider ID: %s", cfg.Provider)}
	}

	name := ModelName(cfg.Provider, cfg.ModelString)
	if name == "" {
		logger.Warn("Model config has no modelString, using adapter default", "provider", cfg.Provider)
	}

	apiKey := cfg.APIKey
	if apiKey == "" && sp.apiKeyEnv != "" {
		apiKey = opts.Getenv(sp.apiKeyEnv)
		if apiKey == "" {
			logger.Warn("API key not configured", "provider", cfg.Provider, "env", sp.apiKeyEnv)
		}
	}

	params := model.ParametersFromConfig(cfg)

	logger.Info("Configuring model adapter",
		"provider", cfg.Provider,
		"model", name,
		"api_base", cfg.APIBase,
		"key_set", apiKey != "",
	)

	switch cfg.Provider {
	case OpenAI, OpenAICompatible:
		return openai.NewModel(func(o *openai.Options) {
			if name != "" {
				o.Model = name
			}
			o.Parameters = params
			o.APIKey = apiKey
			o.BaseURL = cfg.APIBase
		}), nil
	case Anthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if name != "" {
				o.Model = name
			}
			o.Parameters = params
			o.APIKey = apiKey
			o.BaseURL = cfg.APIBase
		}), nil
	default:
		project, location := cfg.ProjectID, cfg.Location
		if cfg.Provider == GoogleVertex {
			if project == "" {
				project = opts.Getenv("GOOGLE_CLOUD_PROJECT")
			}
			if location == "" {
				location = opts.Getenv("GOOGLE_CLOUD_LOCATION")
			}
		}
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			if name != "" {
				o.Model = name
			}
			o.Parameters = params
			o.APIKey = apiKey
			o.Project = project
			o.Location = location
			o.BaseURL = cfg.APIBase
		})
	}
}

// ModelName strips the provider's routing prefix from a model string.
func ModelName(provider, modelString string) string {
	sp, ok := backends[provider]
	if !ok || sp.prefix == "" {
		return modelString
	}
	return strings.TrimPrefix(modelString, sp.prefix+"/")
}
