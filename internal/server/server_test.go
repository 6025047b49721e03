package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphaelgruber/chatrelay-go/internal/llm"
	"github.com/raphaelgruber/chatrelay-go/internal/metrics"
	"github.com/raphaelgruber/chatrelay-go/internal/server"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStreamer always fails before producing a fragment.
type failingStreamer struct{}

func (failingStreamer) Stream(ctx context.Context, input string, onDelta func(string) error) error {
	return errors.New("provider unreachable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, streamer llm.Streamer) (*httptest.Server, *store.Store) {
	t.Helper()
	collector := metrics.NewCollector()
	st := store.New(filepath.Join(t.TempDir(), "chats.json"), testLogger(), collector)
	svc := service.NewChatService(st, streamer, testLogger(), collector)
	srv := server.New(svc, testLogger(), collector, "*")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestChatCRUD(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	// Create with default title.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chats", map[string]string{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created store.Summary
	decodeInto(t, resp, &created)
	assert.Equal(t, "New chat", created.Title)
	assert.NotEmpty(t, created.ID)

	// Create with explicit title.
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chats", map[string]string{"title": "Recipes"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second store.Summary
	decodeInto(t, resp, &second)

	// List all, newest first.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/chats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chats []store.Summary
	decodeInto(t, resp, &chats)
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID)

	// Search is a case-insensitive title filter.
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/chats?search=recip", nil)
	decodeInto(t, resp, &chats)
	require.Len(t, chats, 1)
	assert.Equal(t, "Recipes", chats[0].Title)

	// Rename.
	resp = doJSON(t, http.MethodPatch, ts.URL+"/api/chats/"+created.ID, map[string]string{"title": "Plans"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ok map[string]bool
	decodeInto(t, resp, &ok)
	assert.True(t, ok["ok"])

	// Delete.
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/chats/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/chats/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestNotFoundRoutes(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPatch, "/api/chats/missing", map[string]string{"title": "x"}},
		{http.MethodDelete, "/api/chats/missing", nil},
		{http.MethodGet, "/api/chats/missing/messages", nil},
		{http.MethodPost, "/api/chats/missing/stream", map[string]string{"message": "hi"}},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp := doJSON(t, tc.method, ts.URL+tc.path, tc.body)
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			var body map[string]string
			decodeInto(t, resp, &body)
			assert.Equal(t, "Chat not found", body["detail"])
		})
	}
}

func TestRename_RequiresTitle(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	resp := doJSON(t, http.MethodPatch, ts.URL+"/api/chats/any", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// sseEvent is one parsed frame of a text/event-stream response.
type sseEvent struct {
	name string
	data map[string]string
}

func parseSSE(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var current sseEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			payload := strings.TrimPrefix(line, "data: ")
			require.NoError(t, json.Unmarshal([]byte(payload), &current.data))
		case line == "":
			if current.name != "" {
				events = append(events, current)
			}
			current = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestStream_DemoFlow(t *testing.T) {
	ts, st := newTestServer(t, &llm.Demo{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chats", map[string]string{"title": "demo"})
	var chat store.Summary
	decodeInto(t, resp, &chat)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chats/"+chat.ID+"/stream", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := parseSSE(t, resp.Body)
	resp.Body.Close()
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, "done", last.name)

	var text string
	for _, e := range events[:len(events)-1] {
		require.Equal(t, "delta", e.name)
		text += e.data["text"]
	}
	want := "Demo response (no LLM configured): you said -> hi"
	assert.Equal(t, want, text)

	// Both turns were persisted.
	msgs, err := st.Messages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, want, msgs[1].Content)
}

func TestStream_GenerationFailureEmitsErrorEvent(t *testing.T) {
	ts, st := newTestServer(t, failingStreamer{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chats", map[string]string{"title": "doomed"})
	var chat store.Summary
	decodeInto(t, resp, &chat)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chats/"+chat.ID+"/stream", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := parseSSE(t, resp.Body)
	resp.Body.Close()
	require.Len(t, events, 1)
	assert.Equal(t, "error", events[0].name)
	assert.Contains(t, events[0].data["message"], "provider unreachable")

	// The user turn survives, no assistant turn was written.
	msgs, err := st.Messages(context.Background(), chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
}

func TestStats_ReportsStreamMetrics(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/chats", map[string]string{})
	var chat store.Summary
	decodeInto(t, resp, &chat)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/chats/"+chat.ID+"/stream", map[string]string{"message": "x"})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap metrics.Snapshot
	decodeInto(t, resp, &snap)

	require.NotNil(t, snap.LLMStream)
	assert.Equal(t, int64(1), snap.LLMStream.Count)
	require.NotNil(t, snap.StoreWrite)
	assert.Positive(t, snap.StoreWrite.Count)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(body))
}

func TestCORS_Preflight(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/chats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStream_InvalidBody(t *testing.T) {
	ts, _ := newTestServer(t, &llm.Demo{})

	resp, err := http.Post(ts.URL+"/api/chats/any/stream", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
