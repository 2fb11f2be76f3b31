// Package board defines the Kanban board entities: boards, cards, columns,
// and the provenance references that link cards to commits and pull requests.
package board

import "time"

// Column identifies one of the three workflow lists on a board.
type Column string

const (
	ColumnTodo  Column = "todo"
	ColumnDoing Column = "doing"
	ColumnDone  Column = "done"
)

// Columns lists all workflow columns in board order.
var Columns = []Column{ColumnTodo, ColumnDoing, ColumnDone}

// Valid reports whether c is one of the three known columns.
func (c Column) Valid() bool {
	return c == ColumnTodo || c == ColumnDoing || c == ColumnDone
}

// Board is the top-level entity holding the three ordered card lists.
// Column membership is positional: a card belongs to whichever list
// contains it, and a card id is unique across all three lists.
type Board struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Card is a single Kanban card.
type Card struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Meta        CardMeta  `json:"metadata"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CardMeta is the free-form metadata bag the sync engine writes into.
type CardMeta struct {
	SHA          string          `json:"sha,omitempty"`
	Type         string          `json:"type,omitempty"` // "commit" or "pull_request"
	Branch       string          `json:"branch,omitempty"`
	URL          string          `json:"url,omitempty"`
	CIStatus     string          `json:"ciStatus,omitempty"`
	ReferencedIn []TaskReference `json:"referencedIn,omitempty"`
}

// TaskReference records one detected mention of a card inside commit or
// pull-request text, with enough provenance to render a link.
type TaskReference struct {
	CardID  string `json:"card_id"`
	Context string `json:"context,omitempty"`
	Type    string `json:"source_type"` // "commit" or "pull_request"
	URL     string `json:"source_url,omitempty"`
	SHA     string `json:"source_sha,omitempty"`
}

// Snapshot is a read-only view of a board's three lists, as broadcast to
// connected clients after a mutation.
type Snapshot struct {
	BoardID string            `json:"board_id"`
	Lists   map[Column][]Card `json:"lists"`
}

// FindCard returns the card with the given id and the column holding it,
// or nil when the id is not on the board.
func (s *Snapshot) FindCard(id string) (*Card, Column) {
	for _, col := range Columns {
		cards := s.Lists[col]
		for i := range cards {
			if cards[i].ID == id {
				return &cards[i], col
			}
		}
	}
	return nil, ""
}

// Cards returns all cards across the three lists in board order.
func (s *Snapshot) Cards() []Card {
	var out []Card
	for _, col := range Columns {
		out = append(out, s.Lists[col]...)
	}
	return out
}

// ChatMessage is one message in a board's chat stream.
type ChatMessage struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
