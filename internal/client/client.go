// Package client provides a Go client for the chatrelay server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
)

// Client talks to a running chatrelay server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// New creates a new client.
// If endpoint is empty, uses CHATRELAY_SERVER_URL env var or defaults to
// localhost:8487. Timeout can be configured via CHATRELAY_CLIENT_TIMEOUT.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = os.Getenv("CHATRELAY_SERVER_URL")
	}
	if endpoint == "" {
		endpoint = "http://localhost:8487"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	timeout := time.Minute
	if t := os.Getenv("CHATRELAY_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError is the server's JSON error body.
type apiError struct {
	Detail string `json:"detail"`
}

// do executes one JSON request and decodes the response into result (when
// non-nil). Non-2xx responses become errors carrying the server's detail.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Detail != "" {
			if resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("%s: %w", apiErr.Detail, store.ErrNotFound)
			}
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("server error (%d)", resp.StatusCode)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListChats returns chat summaries, optionally filtered by a title search.
func (c *Client) ListChats(ctx context.Context, search string) ([]store.Summary, error) {
	path := "/api/chats"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var chats []store.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat. An empty title gets the server default.
func (c *Client) CreateChat(ctx context.Context, title string) (store.Summary, error) {
	var created store.Summary
	err := c.do(ctx, http.MethodPost, "/api/chats", map[string]string{"title": title}, &created)
	return created, err
}

// RenameChat sets a new title on a chat.
func (c *Client) RenameChat(ctx context.Context, id, title string) error {
	return c.do(ctx, http.MethodPatch, "/api/chats/"+url.PathEscape(id), map[string]string{"title": title}, nil)
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/chats/"+url.PathEscape(id), nil, nil)
}

// ListMessages returns a chat's transcript in conversation order.
func (c *Client) ListMessages(ctx context.Context, id string) ([]store.Message, error) {
	var msgs []store.Message
	if err := c.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(id)+"/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// wsFrame is one event frame of the websocket stream transport.
type wsFrame struct {
	Event service.EventKind `json:"event"`
	Data  json.RawMessage   `json:"data"`
}

// SendMessage streams a reply to text over the websocket transport. The
// onDelta callback is invoked for each fragment as it arrives; return an
// error from onDelta to abort. SendMessage returns once the terminal event
// arrives: nil after done, an error carrying the server's message after
// error.
func (c *Client) SendMessage(ctx context.Context, id, text string, onDelta func(text string) error) error {
	wsEndpoint := c.endpoint
	wsEndpoint = strings.Replace(wsEndpoint, "http://", "ws://", 1)
	wsEndpoint = strings.Replace(wsEndpoint, "https://", "wss://", 1)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsEndpoint+"/api/chats/"+url.PathEscape(id)+"/ws", nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Close the connection when ctx is cancelled so the server stops
	// generating and the read loop below unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := conn.WriteJSON(map[string]string{"message": text}); err != nil {
		return fmt.Errorf("send message frame: %w", err)
	}

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event frame: %w", err)
		}

		switch frame.Event {
		case service.EventDelta:
			var payload struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				return fmt.Errorf("decode delta payload: %w", err)
			}
			if err := onDelta(payload.Text); err != nil {
				return err
			}
		case service.EventDone:
			return nil
		case service.EventError:
			var payload struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(frame.Data, &payload); err != nil {
				return fmt.Errorf("decode error payload: %w", err)
			}
			if payload.Message == "Chat not found" {
				return fmt.Errorf("%s: %w", payload.Message, store.ErrNotFound)
			}
			return fmt.Errorf("stream failed: %s", payload.Message)
		default:
			return fmt.Errorf("unexpected event %q", frame.Event)
		}
	}
}
