package api

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/starford/ansuz/internal/events"
)

const (
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSink adapts a websocket connection to the hub's Sink interface.
// Writes come from both the hub's event loop and this handler's
// heartbeat loop, so they are serialized.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// ServeWS handles GET /api/sessions/{id}/ws. The connection receives every
// event broadcast to the session. A "ping" text frame is answered with a
// pong event; after 30 seconds without an inbound frame a heartbeat event
// is sent instead.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.String("session_id", id), slog.String("error", err.Error()))
		return
	}

	// Connecting to an unknown id creates the session, so clients may open
	// the socket before their first upload.
	sess := h.registry.GetOrCreate(id)

	sink := &wsSink{conn: conn}
	h.hub.AddConnection(id, sink)
	defer func() {
		h.hub.RemoveConnection(id, sink)
		conn.Close()
	}()
	slog.Info("websocket connected", slog.String("session_id", id))

	// Late joiners get the current graph immediately.
	if sess.HasNodes() {
		if err := sink.WriteJSON(events.NewGraphState(sess.Snapshot())); err != nil {
			return
		}
	}

	done := make(chan struct{})
	defer close(done)

	inbound := make(chan string)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage {
				select {
				case inbound <- string(data):
				case <-done:
					return
				}
			}
		}
	}()

	idle := time.NewTimer(heartbeatInterval)
	defer idle.Stop()
	for {
		select {
		case msg := <-inbound:
			if strings.TrimSpace(msg) == "ping" {
				if err := sink.WriteJSON(events.NewPong()); err != nil {
					return
				}
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(heartbeatInterval)
		case <-idle.C:
			if err := sink.WriteJSON(events.NewHeartbeat()); err != nil {
				return
			}
			idle.Reset(heartbeatInterval)
		case <-readDone:
			slog.Info("websocket disconnected", slog.String("session_id", id))
			return
		}
	}
}
