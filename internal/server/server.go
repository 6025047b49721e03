// Package server exposes the chat service over HTTP: REST routes for chat
// CRUD plus SSE and websocket transports for the message stream.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/raphaelgruber/chatrelay-go/internal/metrics"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
)

// Server holds the HTTP layer's dependencies.
type Server struct {
	svc       *service.ChatService
	logger    *slog.Logger
	collector *metrics.Collector
	origins   string
}

// New creates the HTTP server layer. corsOrigins is a comma-separated list
// of allowed origins, or "*". A nil logger falls back to slog.Default().
func New(svc *service.ChatService, logger *slog.Logger, collector *metrics.Collector, corsOrigins string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:       svc,
		logger:    logger,
		collector: collector,
		origins:   corsOrigins,
	}
}

// Handler builds the route table wrapped in recovery, CORS and logging
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/chats", s.handleListChats)
	mux.HandleFunc("POST /api/chats", s.handleCreateChat)
	mux.HandleFunc("PATCH /api/chats/{id}", s.handleRenameChat)
	mux.HandleFunc("DELETE /api/chats/{id}", s.handleDeleteChat)
	mux.HandleFunc("GET /api/chats/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/chats/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /api/chats/{id}/ws", s.handleStreamWS)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	var h http.Handler = mux
	h = LoggingMiddleware(s.logger, h)
	h = CORSMiddleware(s.origins, h)
	h = RecoveryMiddleware(s.logger, h)
	return h
}

type createChatRequest struct {
	Title string `json:"title"`
}

type renameChatRequest struct {
	Title string `json:"title"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.svc.ListChats(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chats)
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	created, err := s.svc.CreateChat(r.Context(), req.Title)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	var req renameChatRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Title == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if err := s.svc.RenameChat(r.Context(), r.PathValue("id"), req.Title); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteChat(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.svc.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

// decodeBody parses a JSON request body, writing a 400 on failure. An empty
// body decodes as the zero value so optional fields keep their defaults.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// writeStoreError maps store errors to HTTP: unknown chat is a client-visible
// 404, everything else (including a corrupt data file) is a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	s.logger.Error("request failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}
