package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies the payload of a message.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
	MessageTypeVoice MessageType = "voice"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeVoice:
		return true
	}
	return false
}

// Message represents a single directed message between two users.
// File columns are populated only for non-text types.
type Message struct {
	ID         uuid.UUID   `db:"id" json:"id"`
	SenderID   uuid.UUID   `db:"sender_id" json:"sender_id"`
	ReceiverID uuid.UUID   `db:"receiver_id" json:"receiver_id"`
	Content    string      `db:"content" json:"content"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	Read       bool        `db:"read" json:"read"`
	Type       MessageType `db:"type" json:"type"`
	FileURL    *string     `db:"file_url" json:"file_url,omitempty"`
	FileName   *string     `db:"file_name" json:"file_name,omitempty"`
	FileSize   *int64      `db:"file_size" json:"file_size,omitempty"`
}

// FileMeta carries attachment metadata for non-text messages.
type FileMeta struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// MessageEvent is broadcasted through websockets.
type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
