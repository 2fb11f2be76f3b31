// Package logger provides structured logging setup for Kanvas.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/kanvasboard/kanvas/internal/config"
)

// New creates a *slog.Logger from the given Logging config. Output is JSON
// on stdout with a "service" attribute on every record. When cfg.Async is
// set, records pass through a buffered AsyncHandler; the returned Closer
// flushes it on shutdown.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, 1024, 1)
		handler = ah
		closer = ah
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
