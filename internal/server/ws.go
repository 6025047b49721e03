package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/chatrelay-go/internal/service"
	"github.com/raphaelgruber/chatrelay-go/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the middleware for REST; WS accepts all origins
	},
}

// wsEvent is the JSON frame shape of the websocket stream transport.
type wsEvent struct {
	Event service.EventKind `json:"event"`
	Data  any               `json:"data"`
}

// handleStreamWS serves the message stream over a websocket: the client
// sends one {"message": ...} frame, the server replies with event frames
// and closes after the terminal event. Unlike the SSE transport the
// connection is already established when the chat lookup happens, so an
// unknown chat is reported as an error frame instead of a 404.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req sendMessageRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn("invalid websocket request frame", "error", err)
		return
	}

	// Cancel the pipeline when the peer closes the connection.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	emit := func(e service.Event) error {
		return conn.WriteJSON(wsEvent{Event: e.Kind, Data: e.Payload()})
	}

	err = s.svc.SendMessage(ctx, r.PathValue("id"), req.Message, emit)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		emit(service.Event{Kind: service.EventError, Message: "Chat not found"})
	case errors.Is(err, context.Canceled):
		// Peer is gone; nothing left to report.
	default:
		s.logger.Error("websocket stream failed", "error", err)
		emit(service.Event{Kind: service.EventError, Message: "internal server error"})
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}
