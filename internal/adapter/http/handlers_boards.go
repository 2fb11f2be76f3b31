package http

import (
	"net/http"

	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/middleware"
	"github.com/kanvasboard/kanvas/internal/port/store"
)

// --- Boards ---

// authorizeBoard gates mutating board/card endpoints on the acting user
// owning the board. Writes the error response itself when access is denied.
func (h *Handlers) authorizeBoard(w http.ResponseWriter, r *http.Request) bool {
	if err := h.Boards.Authorize(r.Context(), urlParam(r, "id"), middleware.UserFrom(r.Context())); err != nil {
		writeDomainError(w, err, "board not found")
		return false
	}
	return true
}

type createBoardRequest struct {
	Title string `json:"title"`
}

// CreateBoard handles POST /api/v1/boards
func (h *Handlers) CreateBoard(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createBoardRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Title, "title") {
		return
	}

	b, err := h.Boards.Create(r.Context(), middleware.UserFrom(r.Context()), req.Title)
	if err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ListBoards handles GET /api/v1/boards
func (h *Handlers) ListBoards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.Boards.List(r.Context(), middleware.UserFrom(r.Context()))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if boards == nil {
		boards = []board.Board{}
	}
	writeJSON(w, http.StatusOK, boards)
}

// GetBoard handles GET /api/v1/boards/{id} and returns the full snapshot.
func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Boards.Snapshot(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteBoard handles DELETE /api/v1/boards/{id}
func (h *Handlers) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeBoard(w, r) {
		return
	}
	if err := h.Boards.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Cards ---

type createCardRequest struct {
	Column      string `json:"column"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateCard handles POST /api/v1/boards/{id}/cards
func (h *Handlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeBoard(w, r) {
		return
	}
	req, ok := readJSON[createCardRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Title, "title") {
		return
	}

	c, err := h.Boards.CreateCard(r.Context(), urlParam(r, "id"), board.Column(req.Column), req.Title, req.Description)
	if err != nil {
		writeDomainError(w, err, "board not found")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type updateCardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// UpdateCard handles PUT /api/v1/boards/{id}/cards/{cardID}
func (h *Handlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeBoard(w, r) {
		return
	}
	req, ok := readJSON[updateCardRequest](w, r)
	if !ok {
		return
	}

	patch := store.CardPatch{Title: req.Title, Description: req.Description}
	if err := h.Boards.UpdateCard(r.Context(), urlParam(r, "id"), urlParam(r, "cardID"), patch); err != nil {
		writeDomainError(w, err, "card not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveCardRequest struct {
	Column string `json:"column"`
}

// MoveCard handles POST /api/v1/boards/{id}/cards/{cardID}/move
func (h *Handlers) MoveCard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeBoard(w, r) {
		return
	}
	req, ok := readJSON[moveCardRequest](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Column, "column") {
		return
	}

	if err := h.Boards.MoveCard(r.Context(), urlParam(r, "id"), urlParam(r, "cardID"), board.Column(req.Column)); err != nil {
		writeDomainError(w, err, "card not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCard handles DELETE /api/v1/boards/{id}/cards/{cardID}
func (h *Handlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeBoard(w, r) {
		return
	}
	if err := h.Boards.DeleteCard(r.Context(), urlParam(r, "id"), urlParam(r, "cardID")); err != nil {
		writeDomainError(w, err, "card not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
