package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kanvasboard/kanvas/internal/domain"
	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/port/broadcast"
	"github.com/kanvasboard/kanvas/internal/port/store"
)

// BoardService exposes board and card operations to the HTTP surface.
// Manual card edits broadcast the same snapshot event the reconciler uses,
// so every client converges on one view regardless of who mutated.
type BoardService struct {
	boards store.BoardStore
	sink   broadcast.Broadcaster
}

// NewBoardService creates the service.
func NewBoardService(boards store.BoardStore, sink broadcast.Broadcaster) *BoardService {
	return &BoardService{boards: boards, sink: sink}
}

// Create makes a new empty board owned by ownerID.
func (s *BoardService) Create(ctx context.Context, ownerID, title string) (*board.Board, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	b := &board.Board{ID: uuid.NewString(), OwnerID: ownerID, Title: title}
	if err := s.boards.CreateBoard(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Authorize reports whether userID may mutate the board. Only the owner may;
// identity comes from a trusted header, so this is an access predicate, not
// authentication.
func (s *BoardService) Authorize(ctx context.Context, boardID, userID string) error {
	b, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}
	if b.OwnerID != userID {
		return fmt.Errorf("%w: user %s does not own board %s", domain.ErrUnauthorized, userID, boardID)
	}
	return nil
}

// Get returns the board entity.
func (s *BoardService) Get(ctx context.Context, id string) (*board.Board, error) {
	return s.boards.GetBoard(ctx, id)
}

// List returns the boards owned by ownerID.
func (s *BoardService) List(ctx context.Context, ownerID string) ([]board.Board, error) {
	return s.boards.ListBoards(ctx, ownerID)
}

// Delete removes the board and everything on it.
func (s *BoardService) Delete(ctx context.Context, id string) error {
	return s.boards.DeleteBoard(ctx, id)
}

// Snapshot returns the board's three lists in positional order.
func (s *BoardService) Snapshot(ctx context.Context, boardID string) (*board.Snapshot, error) {
	return s.boards.Snapshot(ctx, boardID)
}

// CreateCard adds a card to the given column and broadcasts the new snapshot.
func (s *BoardService) CreateCard(ctx context.Context, boardID string, col board.Column, title, description string) (*board.Card, error) {
	if !col.Valid() {
		return nil, fmt.Errorf("%w: unknown column %q", domain.ErrValidation, col)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	c := &board.Card{ID: "card-" + uuid.NewString()[:8], Title: title, Description: description}
	if err := s.boards.CreateCard(ctx, boardID, col, c); err != nil {
		return nil, err
	}
	s.broadcast(ctx, boardID)
	return c, nil
}

// UpdateCard patches a card's editable fields.
func (s *BoardService) UpdateCard(ctx context.Context, boardID, cardID string, patch store.CardPatch) error {
	ok, err := s.boards.UpdateCard(ctx, boardID, cardID, patch)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: card %s", domain.ErrNotFound, cardID)
	}
	s.broadcast(ctx, boardID)
	return nil
}

// MoveCard moves a card to another column.
func (s *BoardService) MoveCard(ctx context.Context, boardID, cardID string, to board.Column) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown column %q", domain.ErrValidation, to)
	}
	moved, err := s.boards.MoveCard(ctx, boardID, cardID, to)
	if err != nil {
		return err
	}
	if moved {
		s.broadcast(ctx, boardID)
	}
	return nil
}

// DeleteCard removes a card.
func (s *BoardService) DeleteCard(ctx context.Context, boardID, cardID string) error {
	if err := s.boards.DeleteCard(ctx, boardID, cardID); err != nil {
		return err
	}
	s.broadcast(ctx, boardID)
	return nil
}

func (s *BoardService) broadcast(ctx context.Context, boardID string) {
	snap, err := s.boards.Snapshot(ctx, boardID)
	if err != nil {
		return
	}
	s.sink.Emit(ctx, boardID, EventKanbanUpdate, snap)
}
