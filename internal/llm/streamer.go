// Package llm produces token streams from a configured provider, falling
// back to a deterministic demo stream when no provider is configured.
package llm

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/chatrelay-go/internal/config"
)

// Streamer produces a finite, ordered sequence of text fragments for one
// input. Each call is an independent generation; fragments are delivered to
// onDelta in generation order without buffering. Returning an error from
// onDelta aborts the stream.
type Streamer interface {
	Stream(ctx context.Context, input string, onDelta func(text string) error) error
}

// New selects the streamer variant from configuration: a provider-backed
// streamer when both endpoint and credential are configured, the demo
// streamer otherwise. An unconfigured provider is not an error.
func New(cfg config.Config, logger *slog.Logger) (Streamer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.LLMBaseURL == "" || cfg.LLMAPIKey == "" {
		logger.Info("no LLM provider configured, using demo streamer")
		return NewDemo(), nil
	}

	logger.Info("using LLM provider", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	return NewProvider(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey)
}
