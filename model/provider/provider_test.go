package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model/anthropic"
	"github.com/hupe1980/agentlab/model/gemini"
	"github.com/hupe1980/agentlab/model/openai"
)

func env(vals map[string]string) func(o *Options) {
	return func(o *Options) {
		o.Getenv = func(k string) string { return vals[k] }
	}
}

func TestModelName(t *testing.T) {
	tests := []struct {
		provider string
		in       string
		want     string
	}{
		{OpenAI, "openai/gpt-4o", "gpt-4o"},
		{OpenAI, "gpt-4o", "gpt-4o"},
		{GoogleAIStudio, "gemini/gemini-2.5-pro", "gemini-2.5-pro"},
		{Anthropic, "anthropic/claude-3-5-haiku-latest", "claude-3-5-haiku-latest"},
		{"custom", "x/y", "x/y"},
	}
	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ModelName(tt.provider, tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	keys := env(map[string]string{"OPENAI_API_KEY": "k1", "ANTHROPIC_API_KEY": "k2", "GEMINI_API_KEY": "k3"})

	t.Run("openai", func(t *testing.T) {
		m, err := New(ctx, core.ModelConfig{Provider: OpenAI, ModelString: "openai/gpt-4o"}, keys)
		require.NoError(t, err)
		assert.IsType(t, &openai.Model{}, m)
		assert.Equal(t, "gpt-4o", m.Info().Name)
	})

	t.Run("openai compatible with base", func(t *testing.T) {
		m, err := New(ctx, core.ModelConfig{
			Provider:    OpenAICompatible,
			ModelString: "llama3",
			APIBase:     "http://localhost:11434/v1",
			APIKey:      "local",
		}, keys)
		require.NoError(t, err)
		assert.IsType(t, &openai.Model{}, m)
	})

	t.Run("anthropic", func(t *testing.T) {
		m, err := New(ctx, core.ModelConfig{Provider: Anthropic, ModelString: "claude-3-5-haiku-latest"}, keys)
		require.NoError(t, err)
		assert.IsType(t, &anthropic.Model{}, m)
		assert.Equal(t, "anthropic", m.Info().Provider)
	})

	t.Run("gemini api", func(t *testing.T) {
		m, err := New(ctx, core.ModelConfig{Provider: GoogleAIStudio, ModelString: "gemini/gemini-2.5-flash"}, keys)
		require.NoError(t, err)
		assert.IsType(t, &gemini.Model{}, m)
		assert.Equal(t, "gemini-2.5-flash", m.Info().Name)
	})

	t.Run("missing provider", func(t *testing.T) {
		_, err := New(ctx, core.ModelConfig{ModelString: "x"}, keys)
		var ve *core.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(ctx, core.ModelConfig{Provider: "bogus", ModelString: "x"}, keys)
		var ve *core.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}
