// Package model defines the provider agnostic abstractions for calling
// language models from local agent runs.
//
// Providers (OpenAI, Anthropic, Gemini) implement Model in sub-packages so
// agents remain decoupled from vendor SDKs. The provider sub-package selects
// and configures an adapter from a stored model configuration.
package model
