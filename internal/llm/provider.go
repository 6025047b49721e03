package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider streams completions from an OpenAI-compatible endpoint using a
// bearer credential.
type Provider struct {
	llm       llms.Model
	modelName string
}

// Compile-time check that Provider implements Streamer.
var _ Streamer = (*Provider)(nil)

// NewProvider creates a provider streamer for the given endpoint, model and
// API key.
func NewProvider(baseURL, model, apiKey string) (*Provider, error) {
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	return &Provider{
		llm:       client,
		modelName: model,
	}, nil
}

// Stream opens a fresh generation for input and forwards each chunk to
// onDelta as it arrives. Connection or status failures surface as a single
// fatal error; no partial fragments are synthesized.
func (p *Provider) Stream(ctx context.Context, input string, onDelta func(text string) error) error {
	_, err := llms.GenerateFromSinglePrompt(ctx, p.llm, input,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("generate stream: %w", err)
	}
	return nil
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.modelName
}
