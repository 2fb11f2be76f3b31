package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	// Webhooks live outside the identity middleware: they authenticate by
	// per-integration HMAC signature inside the handler.
	r.Post("/api/v1/webhooks/{provider}", h.HandleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Boards
		r.Get("/boards", h.ListBoards)
		r.Post("/boards", h.CreateBoard)
		r.Get("/boards/{id}", h.GetBoard)
		r.Delete("/boards/{id}", h.DeleteBoard)

		// Cards (nested under boards)
		r.Post("/boards/{id}/cards", h.CreateCard)
		r.Put("/boards/{id}/cards/{cardID}", h.UpdateCard)
		r.Post("/boards/{id}/cards/{cardID}/move", h.MoveCard)
		r.Delete("/boards/{id}/cards/{cardID}", h.DeleteCard)

		// Chat (nested under boards)
		r.Get("/boards/{id}/chat", h.ListChatMessages)
		r.Post("/boards/{id}/chat", h.PostChatMessage)

		// Integrations
		r.Post("/integrations", h.CreateIntegration)
		r.Get("/boards/{id}/integrations", h.ListIntegrations)
		r.Get("/integrations/{id}", h.GetIntegration)
		r.Put("/integrations/{id}", h.UpdateIntegration)
		r.Post("/integrations/{id}/rotate-secret", h.RotateIntegrationSecret)
		r.Delete("/integrations/{id}", h.DeleteIntegration)
	})

	// Realtime
	r.Get("/ws/boards/{id}", h.HandleBoardSocket)
}
