// Package nats implements the broadcast port on core NATS pub/sub.
//
// Every instance publishes board events to kanvas.board.<boardID> and runs a
// bridge subscription feeding its local WebSocket hub, so clients connected
// to any instance see mutations applied on any other. Delivery is
// fire-and-forget at-most-once, matching the broadcast port's contract;
// JetStream persistence is deliberately not used here.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/kanvasboard/kanvas/internal/adapter/ws"
)

const subjectPrefix = "kanvas.board."

// envelope is the wire form of one broadcast event.
type envelope struct {
	BoardID string          `json:"board_id"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcaster publishes board events to NATS.
type Broadcaster struct {
	nc *nats.Conn
}

// Connect establishes the NATS connection.
func Connect(url string) (*Broadcaster, error) {
	nc, err := nats.Connect(url, nats.Name("kanvas"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	slog.Info("nats connected", "url", url)
	return &Broadcaster{nc: nc}, nil
}

// Emit publishes the event for the board. Failures are logged, never
// surfaced: the sink is fire-and-forget by contract.
func (b *Broadcaster) Emit(_ context.Context, boardID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal broadcast payload", "event", event, "error", err)
		return
	}

	env, err := json.Marshal(envelope{BoardID: boardID, Event: event, Payload: data})
	if err != nil {
		slog.Error("marshal broadcast envelope", "event", event, "error", err)
		return
	}

	if err := b.nc.Publish(subjectPrefix+boardID, env); err != nil {
		slog.Error("nats publish failed", "board", boardID, "event", event, "error", err)
	}
}

// BridgeTo subscribes to all board subjects and forwards envelopes to the
// local WebSocket hub. Returns an unsubscribe func.
func (b *Broadcaster) BridgeTo(hub *ws.Hub) (func(), error) {
	sub, err := b.nc.Subscribe(subjectPrefix+">", func(msg *nats.Msg) {
		var env envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			slog.Error("bad broadcast envelope", "subject", msg.Subject, "error", err)
			return
		}
		hub.Deliver(context.Background(), ws.Message{
			Event:   env.Event,
			BoardID: env.BoardID,
			Payload: env.Payload,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}

	return func() { _ = sub.Unsubscribe() }, nil
}

// Connected reports whether the connection to the NATS server is up.
func (b *Broadcaster) Connected() bool {
	return b.nc.IsConnected()
}

// Close drains and shuts down the NATS connection.
func (b *Broadcaster) Close() error {
	return b.nc.Drain()
}
