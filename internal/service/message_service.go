package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
)

// MessageService handles contact messages between buyers and owners
type MessageService struct {
	messages   *repository.MessageRepository
	properties *PropertyService
	logger     *slog.Logger
}

// NewMessageService creates a new message service
func NewMessageService(messages *repository.MessageRepository, properties *PropertyService, logger *slog.Logger) *MessageService {
	return &MessageService{messages: messages, properties: properties, logger: logger}
}

// Send contacts the owner of a property
func (s *MessageService) Send(ctx context.Context, sender *model.User, req model.SendMessageRequest) (*model.Message, error) {
	content := strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(content) < model.MinMessageLength {
		return nil, &model.ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("message must be at least %d characters", model.MinMessageLength),
		}
	}

	property, err := s.properties.Get(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.UserID == sender.ID {
		return nil, &model.ValidationError{Field: "property_id", Message: "cannot message yourself about your own property"}
	}

	m := &model.Message{
		SenderID:    sender.ID,
		SenderEmail: sender.Email,
		ReceiverID:  property.UserID,
		PropertyID:  property.ID,
		Content:     content,
	}
	if _, err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	s.logger.Info("message sent", "message", m.ID, "property", m.PropertyID)
	return m, nil
}

// Inbox returns messages received by uid, newest first
func (s *MessageService) Inbox(ctx context.Context, uid string) ([]model.Message, error) {
	messages, err := s.messages.Received(ctx, uid)
	if err != nil {
		return nil, &model.QueryFailed{Op: "fetch_where", Err: err}
	}
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// Conversation merges the messages exchanged between uid and other, oldest first
func (s *MessageService) Conversation(ctx context.Context, uid, other string) ([]model.Message, error) {
	sent, err := s.messages.Sent(ctx, uid, other)
	if err != nil {
		return nil, &model.QueryFailed{Op: "fetch_where", Err: err}
	}
	received, err := s.messages.Sent(ctx, other, uid)
	if err != nil {
		return nil, &model.QueryFailed{Op: "fetch_where", Err: err}
	}

	messages := append(sent, received...)
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// MarkRead flags a received message as read. Only the receiver may do so.
func (s *MessageService) MarkRead(ctx context.Context, uid, id string) error {
	m, err := s.messages.Get(ctx, id)
	if err != nil {
		return &model.QueryFailed{Op: "get", Err: err}
	}
	if m == nil {
		return fmt.Errorf("message %s: %w", id, model.ErrNotFound)
	}
	if m.ReceiverID != uid {
		return fmt.Errorf("message %s: %w", id, model.ErrForbidden)
	}
	if m.Read {
		return nil
	}
	if err := s.messages.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
