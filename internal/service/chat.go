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

// EventChatMessage is the realtime event name carrying one chat message.
const EventChatMessage = "chat:message"

const defaultChatHistory = 100

// ChatService persists board chat and fans messages out over the broadcast
// sink.
type ChatService struct {
	chat   store.ChatStore
	boards store.BoardStore
	sink   broadcast.Broadcaster
}

// NewChatService creates the service.
func NewChatService(chat store.ChatStore, boards store.BoardStore, sink broadcast.Broadcaster) *ChatService {
	return &ChatService{chat: chat, boards: boards, sink: sink}
}

// Post stores a message and broadcasts it to the board's watchers.
func (s *ChatService) Post(ctx context.Context, boardID, authorID, body string) (*board.ChatMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", domain.ErrValidation)
	}
	if _, err := s.boards.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	msg := &board.ChatMessage{ID: uuid.NewString(), BoardID: boardID, AuthorID: authorID, Body: body}
	if err := s.chat.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.sink.Emit(ctx, boardID, EventChatMessage, msg)
	return msg, nil
}

// History returns the board's most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context, boardID string, limit int) ([]board.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatHistory
	}
	return s.chat.ListMessages(ctx, boardID, limit)
}
