// Package ws implements the WebSocket adapter for real-time board updates.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Event   string          `json:"event"`
	BoardID string          `json:"board_id"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection subscribed to one board.
type conn struct {
	ws      *websocket.Conn
	boardID string
	cancel  context.CancelFunc
}

// Hub manages active WebSocket connections grouped by board.
type Hub struct {
	mu     sync.RWMutex
	boards map[string]map[*conn]struct{}
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		boards: make(map[string]map[*conn]struct{}),
	}
}

// Handle upgrades the request to a WebSocket subscribed to the given board.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request, boardID string) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, boardID: boardID, cancel: cancel}

	h.mu.Lock()
	if h.boards[boardID] == nil {
		h.boards[boardID] = make(map[*conn]struct{})
	}
	h.boards[boardID][c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "board", boardID, "remote", r.RemoteAddr)

	// Read loop to detect disconnects and consume pings.
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Deliver sends a message to every connection watching the message's board.
func (h *Hub) Deliver(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.boards[msg.BoardID] {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "board", msg.BoardID, "error", err)
			go h.remove(c)
		}
	}
}

// Emit marshals a payload and delivers it to the board's watchers.
// It satisfies the broadcast.Broadcaster port for single-instance setups
// without NATS.
func (h *Hub) Emit(ctx context.Context, boardID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws payload", "event", event, "error", err)
		return
	}
	h.Deliver(ctx, Message{Event: event, BoardID: boardID, Payload: data})
}

// WatcherCount returns the number of active connections for a board.
func (h *Hub) WatcherCount(boardID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.boards[boardID])
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.boards[c.boardID]; ok {
		if _, ok := conns[c]; ok {
			c.cancel()
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.boards, c.boardID)
			}
			slog.Info("websocket disconnected", "board", c.boardID)
		}
	}
}
