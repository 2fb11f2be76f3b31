package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	kotel "github.com/kanvasboard/kanvas/internal/adapter/otel"
	"github.com/kanvasboard/kanvas/internal/adapter/ws"
	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/event"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/port/store"
	"github.com/kanvasboard/kanvas/internal/service"
	"github.com/kanvasboard/kanvas/internal/signature"
)

// Handlers bundles the services the HTTP layer dispatches into.
type Handlers struct {
	Boards       *service.BoardService
	Integrations *service.IntegrationService
	Chat         *service.ChatService
	Reconciler   *service.ReconcilerService
	Registry     store.IntegrationStore
	Hub          *ws.Hub
	Metrics      *kotel.Metrics

	// Optional backing-service probes for the health endpoint.
	DB   interface{ Ping(context.Context) error }
	NATS interface{ Connected() bool }
}

type webhookResponse struct {
	Received  bool `json:"received"`
	Processed bool `json:"processed"`
}

// HandleWebhook handles POST /api/v1/webhooks/{provider}.
//
// The request authenticates by HMAC signature, not by user identity, and the
// secret to check against is per-integration: the handler must resolve the
// integration from the payload's repository identity before it can verify.
// Nothing is mutated until the signature checks out.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Metrics != nil {
		h.Metrics.DeliveriesReceived.Add(ctx, 1)
	}

	provider := integration.Provider(urlParam(r, "provider"))
	if provider != integration.ProviderGitHub {
		h.rejectDelivery(ctx, w, http.StatusNotFound, "unsupported provider")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		h.rejectDelivery(ctx, w, http.StatusBadRequest, "failed to read body")
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if eventType == "" || deliveryID == "" {
		h.rejectDelivery(ctx, w, http.StatusBadRequest, "missing webhook headers")
		return
	}

	ctx, span := kotel.StartDeliverySpan(ctx, string(provider), eventType)
	defer span.End()

	owner, name, ok := event.RepoIdentity(body)
	if !ok {
		h.rejectDelivery(ctx, w, http.StatusBadRequest, "payload missing repository identity")
		return
	}

	integ, err := h.Registry.FindByRepo(ctx, provider, owner, name)
	if errors.Is(err, domain.ErrNotFound) {
		h.rejectDelivery(ctx, w, http.StatusNotFound, "no integration for repository")
		return
	}
	if err != nil {
		// A store outage must answer 500 so the provider redelivers.
		writeInternalError(w, err)
		return
	}

	if !signature.Verify(body, r.Header.Get("X-Hub-Signature-256"), integ.WebhookSecret) {
		slog.Warn("webhook signature rejected",
			"repo", integ.Repo(), "delivery", deliveryID, "event", eventType)
		h.rejectDelivery(ctx, w, http.StatusUnauthorized, "invalid signature")
		return
	}

	processed, err := h.Reconciler.Process(ctx, integ, event.Normalize(eventType, body))
	if err != nil {
		writeInternalError(w, err)
		return
	}

	if processed && h.Metrics != nil {
		h.Metrics.DeliveriesProcessed.Add(ctx, 1)
	}
	slog.Info("webhook delivery handled",
		"repo", integ.Repo(), "delivery", deliveryID, "event", eventType, "processed", processed)
	writeJSON(w, http.StatusOK, webhookResponse{Received: true, Processed: processed})
}

func (h *Handlers) rejectDelivery(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	if h.Metrics != nil {
		h.Metrics.DeliveriesRejected.Add(ctx, 1)
	}
	writeError(w, status, msg)
}

// HandleBoardSocket handles GET /ws/boards/{id}: upgrades the connection and
// registers it with the hub for that board's realtime events.
func (h *Handlers) HandleBoardSocket(w http.ResponseWriter, r *http.Request) {
	boardID := urlParam(r, "id")
	if _, err := h.Boards.Get(r.Context(), boardID); err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	h.Hub.Handle(w, r, boardID)
}

// Health handles GET /health with backing-service status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
		}
	}
	if h.NATS != nil && !h.NATS.Connected() {
		status.Status = "degraded"
		status.NATS = "disconnected"
	}
	writeJSON(w, http.StatusOK, status)
}
