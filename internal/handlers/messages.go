package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/telemetry"
)

// MessageHandler exposes the conversation store over HTTP.
type MessageHandler struct {
	store ConversationStore
	audit *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(store ConversationStore, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{store: store, audit: audit}
}

// SendMessage persists a new message for the authenticated sender.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID uuid.UUID          `json:"receiver_id" binding:"required"`
		Content    string             `json:"content"`
		Type       models.MessageType `json:"type"`
		FileURL    string             `json:"file_url"`
		FileName   string             `json:"file_name"`
		FileSize   int64              `json:"file_size"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var file *models.FileMeta
	if req.FileURL != "" {
		file = &models.FileMeta{URL: req.FileURL, Name: req.FileName, Size: req.FileSize}
	}

	msg, err := h.store.SendMessage(c.Request.Context(), sess, req.ReceiverID, req.Content, req.Type, file)
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.audit.Emit(c.Request.Context(), "send_message", "ok", "", requestIDFromContext(c), auditUserID(sess))
	c.JSON(http.StatusCreated, msg)
}

// GetMessages returns the newest messages exchanged with a friend, oldest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	friendID, err := uuid.Parse(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
	}

	msgs, err := h.store.GetMessages(c.Request.Context(), sess, friendID, limit)
	if err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkMessagesAsRead flips unread messages from the friend to read.
func (h *MessageHandler) MarkMessagesAsRead(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	friendID, err := uuid.Parse(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	if err := h.store.MarkMessagesAsRead(c.Request.Context(), sess, friendID); err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": "failed to mark messages as read"})
		return
	}

	c.Status(http.StatusNoContent)
}

// DeleteMessage removes a message the caller sent. Foreign and unknown
// messages are indistinguishable from a no-op delete.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.store.DeleteMessage(c.Request.Context(), sess, messageID); err != nil {
		c.JSON(storeErrorStatus(err), gin.H{"error": "failed to delete message"})
		return
	}

	h.audit.Emit(c.Request.Context(), "delete_message", "ok", "", requestIDFromContext(c), auditUserID(sess))
	c.Status(http.StatusNoContent)
}

// GetConversations returns one conversation per friend. When some friends
// could not be assembled, the partial result is returned and flagged.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	conversations, err := h.store.GetConversations(c.Request.Context(), sess)
	if err != nil && len(conversations) == 0 {
		c.JSON(storeErrorStatus(err), gin.H{"error": "failed to load conversations", "detail": err.Error()})
		return
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}

	resp := gin.H{"conversations": conversations}
	if err != nil {
		resp["partial"] = true
	}
	c.JSON(http.StatusOK, resp)
}
