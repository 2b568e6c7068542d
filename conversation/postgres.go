package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// PostgresStore persists conversations and messages via bun.
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore connects to Postgres with the given DSN and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTables(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) createTables(ctx context.Context) error {
	models := []any{(*User)(nil), (*Conversation)(nil), (*Message)(nil)}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) UpsertUser(ctx context.Context, userID string) error {
	user := &User{
		ID:        userID,
		Email:     userID + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(user).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	_, err := s.db.NewInsert().Model(conv).Exec(ctx)
	return err
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	conv := new(Conversation)
	err := s.db.NewSelect().
		Model(conv).
		Where("c.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *PostgresStore) GetConversationWithMessages(ctx context.Context, id string) (*Conversation, error) {
	conv := new(Conversation)
	err := s.db.NewSelect().
		Model(conv).
		Relation("Messages", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("created_at ASC")
		}).
		Where("c.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if conv.Messages == nil {
		conv.Messages = []Message{}
	}
	return conv, nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	var out []Conversation
	err := s.db.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Message)(nil)).
			Where("conversation_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*Conversation)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *PostgresStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*Conversation)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *Message) error {
	_, err := s.db.NewInsert().Model(msg).Exec(ctx)
	return err
}

func (s *PostgresStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	var recent []Message
	err := s.db.NewSelect().
		Model(&recent).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	// Reverse to ascending creation order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *PostgresStore) SearchMessages(ctx context.Context, keyword string, limit int) ([]Message, error) {
	var out []Message
	err := s.db.NewSelect().
		Model(&out).
		Where("content ILIKE ?", "%"+keyword+"%").
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}
