package http

import (
	"net/http"
	"strconv"

	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/middleware"
)

type postMessageRequest struct {
	Body string `json:"body"`
}

// PostChatMessage handles POST /api/v1/boards/{id}/chat
func (h *Handlers) PostChatMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[postMessageRequest](w, r)
	if !ok {
		return
	}

	msg, err := h.Chat.Post(r.Context(), urlParam(r, "id"), middleware.UserFrom(r.Context()), req.Body)
	if err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ListChatMessages handles GET /api/v1/boards/{id}/chat
func (h *Handlers) ListChatMessages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgs, err := h.Chat.History(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if msgs == nil {
		msgs = []board.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}
