package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func dialBoard(t *testing.T, srvURL, boardID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srvURL, "http") + "/ws/boards/" + boardID
	c, _, err := websocket.Dial(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func TestHubDeliversToBoardWatchersOnly(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		boardID := strings.TrimPrefix(r.URL.Path, "/ws/boards/")
		hub.Handle(w, r, boardID)
	}))
	defer srv.Close()

	watcher := dialBoard(t, srv.URL, "b1")
	other := dialBoard(t, srv.URL, "b2")

	// Wait for both registrations.
	deadline := time.Now().Add(2 * time.Second)
	for (hub.WatcherCount("b1") == 0 || hub.WatcherCount("b2") == 0) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Emit(context.Background(), "b1", "kanban:update", map[string]string{"board_id": "b1"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := watcher.Read(ctx)
	if err != nil {
		t.Fatalf("watcher read: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Event != "kanban:update" || msg.BoardID != "b1" {
		t.Errorf("unexpected message: %+v", msg)
	}

	// The other board's watcher must not receive anything.
	shortCtx, cancelShort := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancelShort()
	if _, _, err := other.Read(shortCtx); err == nil {
		t.Error("b2 watcher unexpectedly received a b1 message")
	}
}

func TestWatcherCountDropsOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Handle(w, r, "b1")
	}))
	defer srv.Close()

	c := dialBoard(t, srv.URL, "b1")

	deadline := time.Now().Add(2 * time.Second)
	for hub.WatcherCount("b1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.WatcherCount("b1") != 1 {
		t.Fatalf("expected 1 watcher, got %d", hub.WatcherCount("b1"))
	}

	_ = c.Close(websocket.StatusNormalClosure, "")

	deadline = time.Now().Add(2 * time.Second)
	for hub.WatcherCount("b1") != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := hub.WatcherCount("b1"); got != 0 {
		t.Errorf("expected 0 watchers after close, got %d", got)
	}
}
