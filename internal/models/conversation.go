package models

import "github.com/google/uuid"

// Conversation is a derived view over the message set for one friend.
// It is never stored; it is recomputed from messages plus the friend list.
type Conversation struct {
	FriendID    uuid.UUID `json:"friend_id"`
	LastMessage *Message  `json:"last_message,omitempty"`
	UnreadCount int       `json:"unread_count"`
}
