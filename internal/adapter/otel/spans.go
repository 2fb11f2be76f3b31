package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kanvas"

// StartDeliverySpan starts a span covering one webhook delivery.
func StartDeliverySpan(ctx context.Context, provider, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "webhook.delivery",
		trace.WithAttributes(
			attribute.String("webhook.provider", provider),
			attribute.String("webhook.event_type", eventType),
		),
	)
}

// StartReconcileSpan starts a span covering reconciliation of one normalized event.
func StartReconcileSpan(ctx context.Context, boardID, eventType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "board.reconcile",
		trace.WithAttributes(
			attribute.String("board.id", boardID),
			attribute.String("event.type", eventType),
		),
	)
}
