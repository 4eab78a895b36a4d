package ws

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// convKey identifies the directed conversation room: messages from friend to user.
func convKey(userID, friendID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", userID, friendID)
}
