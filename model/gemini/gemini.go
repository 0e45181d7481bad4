// Package gemini provides a model.Model backed by the Google Gen AI SDK. It
// serves both the Gemini API (API key) and Vertex AI (project + location).
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Options configures the Gemini adapter.
type Options struct {
	Model      string
	Parameters model.Parameters

	// APIKey selects the Gemini API backend.
	APIKey string

	// Project and Location select the Vertex AI backend when APIKey is empty.
	Project  string
	Location string

	// BaseURL overrides the service endpoint.
	BaseURL string
}

// Model wraps genai.Client behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model. It fails when the SDK can not find
// credentials for the selected backend.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := Options{Model: DefaultModel}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := &genai.ClientConfig{}
	if opts.APIKey != "" {
		cfg.APIKey = opts.APIKey
		cfg.Backend = genai.BackendGeminiAPI
	} else {
		cfg.Project = opts.Project
		cfg.Location = opts.Location
		cfg.Backend = genai.BackendVertexAI
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		system, rest := model.SplitSystem(req.Contents)
		contents := buildContents(rest)
		cfg := m.buildConfig(system)

		if req.Stream {
			var sb strings.Builder
			var finish string
			for resp, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, cfg) {
				if err != nil {
					errCh <- fmt.Errorf("gemini streaming error: %w", err)
					return
				}
				if t := resp.Text(); t != "" {
					sb.WriteString(t)
					out <- model.Response{ID: resp.ResponseID, Partial: true, Content: core.NewTextContent("assistant", t)}
				}
				if r := finishReason(resp); r != "" {
					finish = r
				}
			}
			out <- model.Response{Content: core.NewTextContent("assistant", sb.String()), FinishReason: finish}
			return
		}

		resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, cfg)
		if err != nil {
			errCh <- fmt.Errorf("gemini generate content: %w", err)
			return
		}

		res := model.Response{
			ID:           resp.ResponseID,
			Content:      core.NewTextContent("assistant", resp.Text()),
			FinishReason: finishReason(resp),
		}
		if u := resp.UsageMetadata; u != nil {
			res.Usage = &model.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			}
		}
		out <- res
	}()

	return out, errCh
}

func (m *Model) buildConfig(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	p := m.opts.Parameters
	if p.Temperature != nil {
		t := float32(*p.Temperature)
		cfg.Temperature = &t
	}
	if p.TopP != nil {
		v := float32(*p.TopP)
		cfg.TopP = &v
	}
	if p.TopK != nil {
		v := float32(*p.TopK)
		cfg.TopK = &v
	}
	if p.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = int32(*p.MaxOutputTokens)
	}
	if len(p.StopSequences) > 0 {
		cfg.StopSequences = p.StopSequences
	}
	return cfg
}

func buildContents(contents []core.Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := genai.Role(genai.RoleUser)
		if c.Role == "assistant" || c.Role == "model" {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			switch v := p.(type) {
			case core.TextPart:
				if v.Text != "" {
					parts = append(parts, genai.NewPartFromText(v.Text))
				}
			case core.InlineDataPart:
				parts = append(parts, genai.NewPartFromBytes(v.Data, v.MimeType))
			case core.FileDataPart:
				parts = append(parts, genai.NewPartFromURI(v.URI, v.MimeType))
			}
		}
		if len(parts) > 0 {
			out = append(out, genai.NewContentFromParts(parts, role))
		}
	}
	return out
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "gemini"}
}
