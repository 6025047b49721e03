package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/raphaelgruber/chatrelay-go/internal/service"
)

// handleStream runs the message pipeline and relays its events as
// server-sent events. The response stays plain HTTP until the first event,
// so an unknown chat is reported as a 404 instead of an empty stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	headersSent := false
	emit := func(e service.Event) error {
		if !headersSent {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			headersSent = true
		}
		if err := writeSSE(w, e); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := s.svc.SendMessage(r.Context(), r.PathValue("id"), req.Message, emit)
	if err == nil || headersSent {
		// Terminal event already delivered, or the client went away.
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	s.writeStoreError(w, err)
}

// writeSSE writes one event frame: an event name line followed by a JSON
// data line and a blank line.
func writeSSE(w http.ResponseWriter, e service.Event) error {
	data, err := json.Marshal(e.Payload())
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, data); err != nil {
		return fmt.Errorf("write event frame: %w", err)
	}
	return nil
}
