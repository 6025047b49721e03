package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/chatrelay-go/internal/client"
	"github.com/raphaelgruber/chatrelay-go/internal/llm"
	"github.com/raphaelgruber/chatrelay-go/internal/server"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientAndServer(t *testing.T) *client.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(filepath.Join(t.TempDir(), "chats.json"), logger, nil)
	svc := service.NewChatService(st, &llm.Demo{}, logger, nil)
	srv := server.New(svc, logger, nil, "*")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return client.New(ts.URL)
}

func TestClient_ChatLifecycle(t *testing.T) {
	c := newClientAndServer(t)
	ctx := context.Background()

	created, err := c.CreateChat(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "New chat", created.Title)

	require.NoError(t, c.RenameChat(ctx, created.ID, "Renamed"))

	chats, err := c.ListChats(ctx, "renamed")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, created.ID, chats[0].ID)

	require.NoError(t, c.DeleteChat(ctx, created.ID))
	err = c.DeleteChat(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_SendMessageStreamsOverWebsocket(t *testing.T) {
	c := newClientAndServer(t)
	ctx := context.Background()

	chat, err := c.CreateChat(ctx, "ws test")
	require.NoError(t, err)

	var streamed string
	err = c.SendMessage(ctx, chat.ID, "hi", func(text string) error {
		streamed += text
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Demo response (no LLM configured): you said -> hi", streamed)

	msgs, err := c.ListMessages(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
	assert.Equal(t, store.RoleAssistant, msgs[1].Role)
	assert.Equal(t, streamed, msgs[1].Content)
}

func TestClient_SendMessageUnknownChat(t *testing.T) {
	c := newClientAndServer(t)

	err := c.SendMessage(context.Background(), "missing", "hi", func(string) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_ListMessagesUnknownChat(t *testing.T) {
	c := newClientAndServer(t)

	_, err := c.ListMessages(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
