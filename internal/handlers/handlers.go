package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daloestt55/connecta-sub001/internal/middleware"
	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/session"
	"github.com/daloestt55/connecta-sub001/internal/store"
)

// ConversationStore is the store surface the HTTP gateway exposes.
type ConversationStore interface {
	SendMessage(ctx context.Context, sess session.Session, receiverID uuid.UUID, content string, msgType models.MessageType, file *models.FileMeta) (models.Message, error)
	GetMessages(ctx context.Context, sess session.Session, friendID uuid.UUID, limit int) ([]models.Message, error)
	MarkMessagesAsRead(ctx context.Context, sess session.Session, friendID uuid.UUID) error
	DeleteMessage(ctx context.Context, sess session.Session, messageID uuid.UUID) error
	GetConversations(ctx context.Context, sess session.Session) ([]models.Conversation, error)
	UploadFile(ctx context.Context, sess session.Session, bucket, name, contentType string, data []byte) (string, error)
}

// sessionOrAbort pulls the authenticated session out of the request context.
func sessionOrAbort(c *gin.Context) (session.Session, bool) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return session.Session{}, false
	}
	return sess, true
}

// storeErrorStatus maps store errors onto HTTP statuses.
func storeErrorStatus(err error) int {
	var validation *store.ValidationError
	switch {
	case errors.Is(err, store.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
