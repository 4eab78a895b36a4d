package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daloestt55/connecta-sub001/internal/repositories"
)

// FriendHandler manages the caller's friend list.
type FriendHandler struct {
	friends repositories.FriendRepository
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends repositories.FriendRepository) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// ListFriends returns the caller's friend ids.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	friends, err := h.friends.GetFriends(c.Request.Context(), sess.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}
	if friends == nil {
		friends = []uuid.UUID{}
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// AddFriend records a mutual friendship with another user.
func (h *FriendHandler) AddFriend(c *gin.Context) {
	sess, ok := sessionOrAbort(c)
	if !ok {
		return
	}

	var req struct {
		FriendID uuid.UUID `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FriendID == sess.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	}

	if err := h.friends.AddFriend(c.Request.Context(), sess.UserID, req.FriendID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add friend"})
		return
	}

	c.Status(http.StatusNoContent)
}
