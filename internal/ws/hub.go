package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/observability"
)

// Hub maintains active websocket connections per conversation room.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a connection for messages from friendID to userID.
func (h *Hub) AddClient(userID, friendID uuid.UUID, conn *websocket.Conn, info ConnInfo) {
	key := convKey(userID, friendID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[*websocket.Conn]bool)
	}
	h.rooms[key][conn] = true
	if _, ok := h.connInfo[key]; !ok {
		h.connInfo[key] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[key][conn] = info
}

// RemoveClient removes a connection from its conversation room.
func (h *Hub) RemoveClient(userID, friendID uuid.UUID, conn *websocket.Conn) {
	key := convKey(userID, friendID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[key]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, key)
		}
	}
	if infos, ok := h.connInfo[key]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, key)
		}
	}
}

// BroadcastMessage sends an inserted message to every connection in the
// conversation room keyed by its receiver and sender.
func (h *Hub) BroadcastMessage(msg models.Message) {
	key := convKey(msg.ReceiverID, msg.SenderID)
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[key]))
	for conn := range h.rooms[key] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.MessageEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(msg.ReceiverID, msg.SenderID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
	observability.IncWSEvent("message")
}
