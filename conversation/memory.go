package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when no database is configured and
// as the test double. All returned records are copies.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]User
	conversations map[string]Conversation
	messages      map[string][]Message // keyed by conversation id
	seq           int64                // breaks creation-time ties in sort order
	order         map[string]int64     // message id -> insertion sequence
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]User),
		conversations: make(map[string]Conversation),
		messages:      make(map[string][]Message),
		order:         make(map[string]int64),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) UpsertUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; ok {
		return nil
	}
	s.users[userID] = User{
		ID:        userID,
		Email:     userID + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemoryStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *conv
	stored.Messages = nil
	s.conversations[conv.ID] = stored
	return nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := conv
	return &out, nil
}

func (s *MemoryStore) GetConversationWithMessages(ctx context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := conv
	out.Messages = s.sortedMessages(id)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return &out, nil
}

func (s *MemoryStore) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	for _, m := range s.messages[id] {
		delete(s.order, m.ID)
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.UpdatedAt = at
	s.conversations[id] = conv
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return ErrNotFound
	}
	s.seq++
	s.order[msg.ID] = s.seq
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *MemoryStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	msgs := s.sortedMessages(conversationID)
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *MemoryStore) SearchMessages(ctx context.Context, keyword string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lowered := strings.ToLower(keyword)
	var out []Message
	for id := range s.messages {
		for _, m := range s.messages[id] {
			if strings.Contains(strings.ToLower(m.Content), lowered) {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.less(out[j], out[i])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) sortedMessages(conversationID string) []Message {
	msgs := append([]Message(nil), s.messages[conversationID]...)
	sort.Slice(msgs, func(i, j int) bool {
		return s.less(msgs[i], msgs[j])
	})
	return msgs
}

func (s *MemoryStore) less(a, b Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return s.order[a.ID] < s.order[b.ID]
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
