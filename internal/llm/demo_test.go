package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/raphaelgruber/chatrelay-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemo_EchoesInputDeterministically(t *testing.T) {
	d := &Demo{delay: 0}

	collect := func(input string) string {
		var out string
		err := d.Stream(context.Background(), input, func(text string) error {
			out += text
			return nil
		})
		require.NoError(t, err)
		return out
	}

	want := "Demo response (no LLM configured): you said -> hello"
	assert.Equal(t, want, collect("hello"))

	// Two runs over the same input are character-for-character identical.
	assert.Equal(t, collect("hello"), collect("hello"))
}

func TestDemo_EmitsSingleRuneFragments(t *testing.T) {
	d := &Demo{delay: 0}

	var fragments []string
	err := d.Stream(context.Background(), "hi", func(text string) error {
		fragments = append(fragments, text)
		return nil
	})
	require.NoError(t, err)

	for _, f := range fragments {
		assert.Len(t, []rune(f), 1)
	}
}

func TestDemo_StopsOnCancelledContext(t *testing.T) {
	d := &Demo{delay: 0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := d.Stream(ctx, "hello", func(text string) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDemo_OnDeltaErrorAbortsStream(t *testing.T) {
	d := &Demo{delay: 0}

	boom := errors.New("consumer gone")
	calls := 0
	err := d.Stream(context.Background(), "hello", func(text string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestNew_SelectsDemoWhenUnconfigured(t *testing.T) {
	logger := slog.Default()

	for name, cfg := range map[string]config.Config{
		"nothing set":   {},
		"only base url": {LLMBaseURL: "https://llm.example.com"},
		"only api key":  {LLMAPIKey: "secret"},
	} {
		t.Run(name, func(t *testing.T) {
			s, err := New(cfg, logger)
			require.NoError(t, err)
			assert.IsType(t, &Demo{}, s)
		})
	}
}

func TestNew_SelectsProviderWhenConfigured(t *testing.T) {
	s, err := New(config.Config{
		LLMBaseURL: "https://llm.example.com/v1",
		LLMModel:   "gpt-4o-mini",
		LLMAPIKey:  "secret",
	}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &Provider{}, s)
}
