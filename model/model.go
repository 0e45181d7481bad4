package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentlab/core"
)

// Request captures the normalized model input produced by flows.
//
// Contents may start with a "system" content carrying the resolved
// instructions; adapters lift it into the provider's system slot.
type Request struct {
	Instructions string         `json:"instructions"`
	Contents     []core.Content `json:"contents"`
	Stream       bool           `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Model is the minimal interface required by flows & agents to drive generation.
//
// Generate streams zero or more partial responses followed by one final
// response. The error channel carries at most one error; both channels are
// closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// Parameters are the optional sampling controls shared by all adapters. Nil
// fields leave the provider default in place.
type Parameters struct {
	Temperature     *float64
	MaxOutputTokens *int
	TopP            *float64
	TopK            *int
	StopSequences   []string
}

// ParametersFromConfig extracts sampling controls from a stored model config.
func ParametersFromConfig(cfg core.ModelConfig) Parameters {
	return Parameters{
		Temperature:     cfg.Parameters.Temperature,
		MaxOutputTokens: cfg.Parameters.MaxOutputTokens,
		TopP:            cfg.Parameters.TopP,
		TopK:            cfg.Parameters.TopK,
		StopSequences:   cfg.StopSequences,
	}
}

// SplitSystem separates leading "system" contents from the conversation and
// returns their concatenated text.
func SplitSystem(contents []core.Content) (string, []core.Content) {
	var system string
	rest := make([]core.Content, 0, len(contents))
	for _, c := range contents {
		if c.Role == "system" {
			if t := c.Text(); t != "" {
				if system != "" {
					system += "\n\n"
				}
				system += t
			}
			continue
		}
		rest = append(rest, c)
	}
	return system, rest
}

// MockModel is a lightweight in-memory Model useful for tests.
type MockModel struct {
	info      Info
	responses map[string]string
	err       error

	mu       sync.Mutex
	requests []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Generate call fail with err after emitting
// the partial chunks of its response.
func (m *MockModel) FailWith(err error) { m.err = err }

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}
		last := req.Contents[len(req.Contents)-1]
		inputText := last.Text()
		full := m.responses[inputText]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream || m.err != nil {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Content: core.NewTextContent("assistant", string(r)),
				}:
				}
			}
		}
		if m.err != nil {
			errCh <- m.err
			return
		}
		respCh <- Response{
			Partial:      false,
			Content:      core.NewTextContent("assistant", full),
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
