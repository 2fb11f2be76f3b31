// Package store defines the persistence ports for boards, integrations,
// and chat. Card mutations are expressed as targeted, conditional operations
// so concurrent webhook deliveries cannot overwrite each other's writes.
package store

import (
	"context"

	"github.com/kanvasboard/kanvas/internal/domain/board"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
)

// CardPatch carries the user-editable card fields. Nil fields are left
// untouched.
type CardPatch struct {
	Title       *string
	Description *string
}

// BoardStore is the port for board and card persistence.
//
// Every card-level mutation is a single atomic store operation scoped by
// (boardID, cardID) or (boardID, sha) — never a whole-board overwrite. The
// boolean/count results report whether anything actually changed, which the
// reconciler uses to decide if a broadcast is due.
type BoardStore interface {
	CreateBoard(ctx context.Context, b *board.Board) error
	GetBoard(ctx context.Context, id string) (*board.Board, error)
	ListBoards(ctx context.Context, ownerID string) ([]board.Board, error)
	DeleteBoard(ctx context.Context, id string) error

	// HasAccess reports whether the user may act on the board.
	HasAccess(ctx context.Context, boardID, userID string) (bool, error)

	// Snapshot reads the board's three lists in positional order.
	Snapshot(ctx context.Context, boardID string) (*board.Snapshot, error)

	// CreateCard inserts a card at the tail of the given list.
	CreateCard(ctx context.Context, boardID string, col board.Column, c *board.Card) error

	// UpdateCard applies a patch to one card. Returns false when the card
	// does not exist.
	UpdateCard(ctx context.Context, boardID, cardID string, patch CardPatch) (bool, error)

	// DeleteCard removes one card from whichever list holds it.
	DeleteCard(ctx context.Context, boardID, cardID string) error

	// MoveCard pulls the card from its current list and appends it to the
	// target list. Returns false when the card is absent or already there.
	MoveCard(ctx context.Context, boardID, cardID string, to board.Column) (bool, error)

	// AppendReference adds a provenance entry to the card's referencedIn
	// metadata, guarded against duplicates by source sha (or source URL when
	// the sha is empty). Returns false when the entry was already present or
	// the card does not exist.
	AppendReference(ctx context.Context, boardID, cardID string, ref board.TaskReference) (bool, error)

	// SetCardBranch records the branch a card is being worked on.
	SetCardBranch(ctx context.Context, boardID, cardID, branch string) (bool, error)

	// AnnotatePR writes the pull request's head sha and branch onto the card.
	// Returns false when both values already match (redelivery no-op).
	AnnotatePR(ctx context.Context, boardID, cardID, sha, branch string) (bool, error)

	// ApplyCIStatus writes the CI state onto every card whose metadata sha
	// equals sha. When moveToDone is set, cards not already in done are moved
	// there in the same statement. Returns the number of cards changed.
	ApplyCIStatus(ctx context.Context, boardID, sha, status string, moveToDone bool) (int64, error)
}

// IntegrationStore is the port for the integration registry.
type IntegrationStore interface {
	Create(ctx context.Context, integ *integration.Integration) error
	FindByID(ctx context.Context, id string) (*integration.Integration, error)
	// FindByRepo resolves the integration an inbound webhook belongs to.
	// (provider, owner, name) is unique at the store level.
	FindByRepo(ctx context.Context, provider integration.Provider, owner, name string) (*integration.Integration, error)
	ListByBoard(ctx context.Context, boardID string) ([]integration.Integration, error)
	Update(ctx context.Context, integ *integration.Integration) error
	Delete(ctx context.Context, id string) error
}

// ChatStore persists board chat messages.
type ChatStore interface {
	AppendMessage(ctx context.Context, msg *board.ChatMessage) error
	ListMessages(ctx context.Context, boardID string, limit int) ([]board.ChatMessage, error)
}
