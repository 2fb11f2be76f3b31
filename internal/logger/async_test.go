package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a goroutine-safe bytes.Buffer for capturing handler output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestAsyncHandlerDeliversRecords(t *testing.T) {
	var buf syncBuffer
	h := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16, 1)
	log := slog.New(h)

	log.Info("hello", "k", "v")
	h.Close()

	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("record not delivered: %s", buf.String())
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	inner := &blockingHandler{release: block}
	h := NewAsyncHandler(inner, 1, 1)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0)
	// First record occupies the worker, second fills the buffer, the rest drop.
	for range 5 {
		_ = h.Handle(context.Background(), rec)
	}

	if h.Dropped() == 0 {
		t.Error("expected dropped records with a full buffer")
	}
	close(block)
	h.Close()
}

type blockingHandler struct {
	release chan struct{}
}

func (b *blockingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (b *blockingHandler) Handle(context.Context, slog.Record) error {
	<-b.release
	return nil
}
func (b *blockingHandler) WithAttrs([]slog.Attr) slog.Handler { return b }
func (b *blockingHandler) WithGroup(string) slog.Handler      { return b }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
