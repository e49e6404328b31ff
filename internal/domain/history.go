package domain

import (
	"context"
	"time"
)

// Conversation groups an ordered message sequence under one id.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageRecord is a persisted conversation message. Provider records which
// backend produced an assistant message; empty for user and system turns.
type MessageRecord struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Provider       string    `json:"provider,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryStore persists conversations and their ordered messages.
type HistoryStore interface {
	CreateConversation(ctx context.Context, conv Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)

	AppendMessage(ctx context.Context, convID string, rec MessageRecord) error
	Messages(ctx context.Context, convID string, limit int) ([]MessageRecord, error)

	Close() error
}
