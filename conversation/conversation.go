// Package conversation provides durable storage of conversations and their
// messages, with a Postgres implementation and an in-memory one.
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("conversation not found")

// User is a conversation owner, upserted idempotently before the first
// conversation is created for it.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" json:"-"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,notnull" json:"email"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// Conversation is owned by its creator and mutated only by appending
// messages, which bumps UpdatedAt, or by deletion, which cascades to its
// messages.
type Conversation struct {
	bun.BaseModel `bun:"table:conversations,alias:c" json:"-"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"userId"`
	Title     string    `bun:"title,notnull" json:"title"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Messages []Message `bun:"rel:has-many,join:id=conversation_id" json:"messages,omitempty"`
}

// Message is immutable once persisted. Insertion order is the conversation's
// canonical history order.
type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m" json:"-"`

	ID             string    `bun:"id,pk" json:"id"`
	ConversationID string    `bun:"conversation_id,notnull" json:"conversationId"`
	Role           string    `bun:"role,notnull" json:"role"`
	Content        string    `bun:"content,notnull" json:"content"`
	Agent          string    `bun:"agent,notnull" json:"agent"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
}

// Store is the persistence contract used by the orchestrator and the HTTP
// handlers. Implementations return ErrNotFound for missing conversations.
type Store interface {
	UpsertUser(ctx context.Context, userID string) error

	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	GetConversationWithMessages(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	TouchConversation(ctx context.Context, id string, at time.Time) error

	AppendMessage(ctx context.Context, msg *Message) error
	// RecentMessages returns up to limit of the most recent messages of the
	// conversation, ascending by creation time.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	// SearchMessages returns up to limit messages whose content contains the
	// keyword (case-insensitive), most recent first, across all conversations.
	SearchMessages(ctx context.Context, keyword string, limit int) ([]Message, error)
}
