package repository

import (
	"context"
	"time"

	"spacemarket/internal/model"
)

// MessageRepository stores contact messages
type MessageRepository struct {
	store DocumentStore
}

// NewMessageRepository creates a message repository over a document store
func NewMessageRepository(store DocumentStore) *MessageRepository {
	return &MessageRepository{store: store}
}

func decodeMessages(docs []Document) ([]model.Message, error) {
	messages := make([]model.Message, 0, len(docs))
	for _, doc := range docs {
		var m model.Message
		if err := decodeDocument(doc, &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// Create stores a new message, unread
func (r *MessageRepository) Create(ctx context.Context, m *model.Message) (string, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Read = false
	data, err := encodeDocument(m)
	if err != nil {
		return "", err
	}
	id, err := r.store.Insert(ctx, CollectionMessages, data)
	if err != nil {
		return "", err
	}
	m.ID = id
	return id, nil
}

// Get returns a message, or nil when it does not exist
func (r *MessageRepository) Get(ctx context.Context, id string) (*model.Message, error) {
	doc, err := r.store.Get(ctx, CollectionMessages, id)
	if err != nil || doc == nil {
		return nil, err
	}
	var m model.Message
	if err := decodeDocument(*doc, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Received returns messages addressed to uid, unordered
func (r *MessageRepository) Received(ctx context.Context, uid string) ([]model.Message, error) {
	docs, err := r.store.FetchWhere(ctx, CollectionMessages, Equality{Field: "receiverId", Value: uid})
	if err != nil {
		return nil, err
	}
	return decodeMessages(docs)
}

// Sent returns messages from sender to receiver, unordered
func (r *MessageRepository) Sent(ctx context.Context, sender, receiver string) ([]model.Message, error) {
	docs, err := r.store.FetchWhere(ctx, CollectionMessages,
		Equality{Field: "senderId", Value: sender},
		Equality{Field: "receiverId", Value: receiver},
	)
	if err != nil {
		return nil, err
	}
	return decodeMessages(docs)
}

// MarkRead flags a message as read
func (r *MessageRepository) MarkRead(ctx context.Context, id string) error {
	return r.store.Update(ctx, CollectionMessages, id, map[string]any{"read": true})
}
