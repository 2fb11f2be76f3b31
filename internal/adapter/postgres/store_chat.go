package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanvasboard/kanvas/internal/domain/board"
)

// ChatStore implements store.ChatStore on PostgreSQL.
type ChatStore struct {
	pool *pgxpool.Pool
}

// NewChatStore creates a ChatStore backed by the given pool.
func NewChatStore(pool *pgxpool.Pool) *ChatStore {
	return &ChatStore{pool: pool}
}

func (s *ChatStore) AppendMessage(ctx context.Context, msg *board.ChatMessage) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (id, board_id, author_id, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		msg.ID, msg.BoardID, msg.AuthorID, msg.Body)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (s *ChatStore) ListMessages(ctx context.Context, boardID string, limit int) ([]board.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, board_id, author_id, body, created_at
		 FROM chat_messages
		 WHERE board_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []board.ChatMessage
	for rows.Next() {
		var m board.ChatMessage
		if err := rows.Scan(&m.ID, &m.BoardID, &m.AuthorID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	// Oldest first for display.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, rows.Err()
}
