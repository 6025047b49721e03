package llm

import (
	"context"
	"time"
)

// demoPrefix leads every demo response so callers can tell no real model
// produced it.
const demoPrefix = "Demo response (no LLM configured): you said -> "

// defaultDemoDelay mimics token pacing so streaming UIs stay exercisable.
const defaultDemoDelay = 10 * time.Millisecond

// Demo is the fallback streamer used when no provider is configured. It
// echoes the input one rune at a time, deterministically, so the rest of
// the system works without external dependencies. The zero value streams
// without pacing delay.
type Demo struct {
	delay time.Duration
}

// Compile-time check that Demo implements Streamer.
var _ Streamer = (*Demo)(nil)

// NewDemo creates a demo streamer with the default pacing delay.
func NewDemo() *Demo {
	return &Demo{delay: defaultDemoDelay}
}

// Stream emits the demo echo for input rune by rune. Cancelling ctx stops
// the stream between runes.
func (d *Demo) Stream(ctx context.Context, input string, onDelta func(text string) error) error {
	for _, r := range demoPrefix + input {
		if d.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := onDelta(string(r)); err != nil {
			return err
		}
	}
	return nil
}
