// Package broadcast defines the port for fanning board events out to
// connected real-time clients.
package broadcast

import "context"

// Broadcaster delivers an event to every client watching a board.
// Emit is fire-and-forget: at-most-once per call, no acknowledgment, and
// failures are the adapter's concern (logged, never surfaced to callers).
type Broadcaster interface {
	Emit(ctx context.Context, boardID, event string, payload any)
}
