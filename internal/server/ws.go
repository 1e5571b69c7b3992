package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler pushes engine activity to WebSocket clients. Unlike a
// polling feed it is push-driven: the engine's state change and dispatch
// callbacks call the Broadcast methods.
type EventsHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewEventsHandler creates a new EventsHandler with no clients.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

type stateMessage struct {
	Type      string `json:"type"`
	State     string `json:"state"`
	Timestamp int64  `json:"timestamp"`
}

type dispatchMessage struct {
	Type      string `json:"type"`
	Modality  string `json:"modality"`
	Event     string `json:"event"`
	ActionID  string `json:"action_id"`
	Timestamp int64  `json:"timestamp"`
}

// BroadcastState notifies all clients of an engine state change.
func (h *EventsHandler) BroadcastState(state string) {
	h.broadcast(stateMessage{
		Type:      "state",
		State:     state,
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastDispatch notifies all clients of a dispatched action.
func (h *EventsHandler) BroadcastDispatch(modality, event, actionID string) {
	h.broadcast(dispatchMessage{
		Type:      "dispatch",
		Modality:  modality,
		Event:     event,
		ActionID:  actionID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *EventsHandler) broadcast(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	// Write lock, not read lock: state and dispatch broadcasts arrive from
	// different goroutines, and a websocket connection allows only one
	// concurrent writer.
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("websocket write failed", "error", err)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *EventsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
