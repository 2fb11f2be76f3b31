package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "kanvas"

// Metrics holds all Kanvas metric instruments.
type Metrics struct {
	DeliveriesReceived  metric.Int64Counter
	DeliveriesProcessed metric.Int64Counter
	DeliveriesRejected  metric.Int64Counter
	CardsCreated        metric.Int64Counter
	CardsMoved          metric.Int64Counter
	BroadcastsSent      metric.Int64Counter
	ReconcileDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DeliveriesReceived, err = meter.Int64Counter("kanvas.webhook.deliveries.received",
		metric.WithDescription("Webhook deliveries accepted for processing"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesProcessed, err = meter.Int64Counter("kanvas.webhook.deliveries.processed",
		metric.WithDescription("Webhook deliveries that mutated board state"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesRejected, err = meter.Int64Counter("kanvas.webhook.deliveries.rejected",
		metric.WithDescription("Webhook deliveries rejected before processing"))
	if err != nil {
		return nil, err
	}

	m.CardsCreated, err = meter.Int64Counter("kanvas.cards.created",
		metric.WithDescription("Cards created by reconciliation"))
	if err != nil {
		return nil, err
	}

	m.CardsMoved, err = meter.Int64Counter("kanvas.cards.moved",
		metric.WithDescription("Cards moved between columns by reconciliation"))
	if err != nil {
		return nil, err
	}

	m.BroadcastsSent, err = meter.Int64Counter("kanvas.broadcasts.sent",
		metric.WithDescription("Board events published to the broadcast sink"))
	if err != nil {
		return nil, err
	}

	m.ReconcileDuration, err = meter.Float64Histogram("kanvas.reconcile.duration_seconds",
		metric.WithDescription("Time spent reconciling one normalized event"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
