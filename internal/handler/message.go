package handler

import (
	"net/http"

	"spacemarket/internal/model"
	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler handles contact messages between buyers and owners
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(c *gin.Context) {
	var req model.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), currentSession(c).User, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Inbox handles GET /api/v1/messages
func (h *MessageHandler) Inbox(c *gin.Context) {
	msgs, err := h.messages.Inbox(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": msgs})
}

// Conversation handles GET /api/v1/messages/with/:userId
func (h *MessageHandler) Conversation(c *gin.Context) {
	msgs, err := h.messages.Conversation(c.Request.Context(), currentUID(c), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": msgs})
}

// MarkRead handles POST /api/v1/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.messages.MarkRead(c.Request.Context(), currentUID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
