package model

import "time"

// MinMessageLength is the shortest accepted contact message
const MinMessageLength = 10

// Message is a contact message about a property between two users
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	SenderEmail string    `json:"senderEmail"`
	ReceiverID  string    `json:"receiverId"`
	PropertyID  string    `json:"propertyId"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SendMessageRequest contacts the owner of a property
type SendMessageRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// Section is one independently loaded part of the dashboard
type Section[T any] struct {
	Items []T    `json:"items"`
	Error string `json:"error,omitempty"`
}

// Dashboard aggregates a user's properties, favorites and messages
type Dashboard struct {
	User       *User             `json:"user"`
	Properties Section[Property] `json:"properties"`
	Favorites  Section[Property] `json:"favorites"`
	Messages   Section[Message]  `json:"messages"`
	Unread     int               `json:"unread"`
}
