package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/chatrelay-go/internal/llm"
	"github.com/raphaelgruber/chatrelay-go/internal/metrics"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
)

// Store is the persistence contract the service needs. *store.Store
// satisfies it.
type Store interface {
	List(ctx context.Context, search string) ([]store.Summary, error)
	Create(ctx context.Context, title string) (store.Summary, error)
	Rename(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
	Messages(ctx context.Context, id string) ([]store.Message, error)
	AppendMessage(ctx context.Context, id string, role store.Role, content string) (store.Message, error)
}

// ChatService exposes the chat operations consumed by the HTTP layer and
// orchestrates the streaming message pipeline.
type ChatService struct {
	store     Store
	streamer  llm.Streamer
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewChatService creates the service. A nil logger falls back to
// slog.Default(); a nil collector disables metrics.
func NewChatService(st Store, streamer llm.Streamer, logger *slog.Logger, collector *metrics.Collector) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		store:     st,
		streamer:  streamer,
		logger:    logger,
		collector: collector,
	}
}

// ListChats returns chat summaries, newest first, optionally filtered by a
// case-insensitive title search.
func (s *ChatService) ListChats(ctx context.Context, search string) ([]store.Summary, error) {
	return s.store.List(ctx, search)
}

// CreateChat creates an empty chat. An empty title gets the default.
func (s *ChatService) CreateChat(ctx context.Context, title string) (store.Summary, error) {
	return s.store.Create(ctx, title)
}

// RenameChat sets a new title on an existing chat.
func (s *ChatService) RenameChat(ctx context.Context, id, title string) error {
	return s.store.Rename(ctx, id, title)
}

// DeleteChat removes a chat and its messages.
func (s *ChatService) DeleteChat(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ListMessages returns a chat's messages in conversation order.
func (s *ChatService) ListMessages(ctx context.Context, id string) ([]store.Message, error) {
	return s.store.Messages(ctx, id)
}

// SendMessage runs the streaming pipeline for one user message: persist the
// user turn, forward generated fragments to emit as delta events while
// accumulating them, persist the full reply as the assistant turn, emit a
// terminal event.
//
// An error is returned only when the pipeline fails before any event could
// be emitted (unknown chat, storage failure on the user append) or when the
// caller went away (context cancellation — nothing is persisted and no
// terminal event is sent). Generation and persistence failures after the
// stream opened surface as an error event, never as a dropped stream.
func (s *ChatService) SendMessage(ctx context.Context, id, text string, emit func(Event) error) error {
	if _, err := s.store.AppendMessage(ctx, id, store.RoleUser, text); err != nil {
		return err
	}

	start := time.Now()
	var reply strings.Builder
	var deltas int64

	streamErr := s.streamer.Stream(ctx, text, func(fragment string) error {
		if err := emit(Event{Kind: EventDelta, Text: fragment}); err != nil {
			return err
		}
		deltas++
		reply.WriteString(fragment)
		return nil
	})
	s.collector.RecordStream(time.Since(start), deltas)

	if streamErr != nil {
		if ctx.Err() != nil {
			// Client disconnected: the partial reply is discarded so the
			// store only ever holds complete turns.
			s.logger.Info("stream cancelled by caller", "chat_id", id, "deltas", deltas)
			return ctx.Err()
		}
		s.logger.Error("generation failed", "chat_id", id, "error", streamErr)
		return emit(Event{Kind: EventError, Message: streamErr.Error()})
	}

	if _, err := s.store.AppendMessage(ctx, id, store.RoleAssistant, reply.String()); err != nil {
		// The caller already holds the full text via deltas; report the
		// failed persistence instead of claiming success.
		s.logger.Error("failed to persist assistant message", "chat_id", id, "error", err)
		return emit(Event{Kind: EventError, Message: "failed to persist assistant message"})
	}

	s.logger.Debug("message stream complete", "chat_id", id, "deltas", deltas, "reply_len", reply.Len())
	return emit(Event{Kind: EventDone})
}
