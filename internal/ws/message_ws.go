package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/observability"
	"github.com/daloestt55/connecta-sub001/internal/realtime"
	"github.com/daloestt55/connecta-sub001/internal/session"
)

// MessageSubscriber opens realtime subscriptions for one friend.
type MessageSubscriber interface {
	Subscribe(sess session.Session, friendID uuid.UUID, fn func(models.Message)) (*realtime.Subscription, error)
}

// MessageWebSocketHandler bridges realtime subscriptions onto websocket
// clients. Connections for the same conversation share one subscription so
// each inserted message reaches every client exactly once.
type MessageWebSocketHandler struct {
	hub      *Hub
	store    MessageSubscriber
	sessions *session.Manager

	mu       sync.Mutex
	roomSubs map[string]*roomSub
}

type roomSub struct {
	sub  *realtime.Subscription
	refs int
}

// NewMessageWebSocketHandler constructs a MessageWebSocketHandler.
func NewMessageWebSocketHandler(hub *Hub, store MessageSubscriber, sessions *session.Manager) *MessageWebSocketHandler {
	return &MessageWebSocketHandler{
		hub:      hub,
		store:    store,
		sessions: sessions,
		roomSubs: make(map[string]*roomSub),
	}
}

// acquireSubscription opens the room's subscription on first use and counts
// a reference for each connection sharing it.
func (h *MessageWebSocketHandler) acquireSubscription(sess session.Session, friendID uuid.UUID) (*realtime.Subscription, error) {
	key := convKey(sess.UserID, friendID)
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.roomSubs[key]; ok {
		rs.refs++
		return rs.sub, nil
	}

	sub, err := h.store.Subscribe(sess, friendID, func(msg models.Message) {
		h.hub.BroadcastMessage(msg)
	})
	if err != nil {
		return nil, err
	}
	h.roomSubs[key] = &roomSub{sub: sub, refs: 1}
	return sub, nil
}

// releaseSubscription drops one reference and closes the subscription when
// the room empties.
func (h *MessageWebSocketHandler) releaseSubscription(userID, friendID uuid.UUID) {
	key := convKey(userID, friendID)
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.roomSubs[key]
	if !ok {
		return
	}
	rs.refs--
	if rs.refs <= 0 {
		rs.sub.Close()
		delete(h.roomSubs, key)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the caller, opens a subscription for the friend and
// upgrades the connection. Subscription failures are reported over HTTP
// before the upgrade, never swallowed.
func (h *MessageWebSocketHandler) Handle(c *gin.Context) {
	friendID, err := uuid.Parse(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	ctx, span := otel.Tracer("connecta-sync/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = "Bearer " + c.Query("token")
	}
	sess, err := resolveBearer(h.sessions, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if _, err := h.acquireSubscription(sess, friendID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not subscribe"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.releaseSubscription(sess.UserID, friendID)
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      sess.UserID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     trace.SpanContextFromContext(ctx).TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(sess.UserID, friendID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	// Hold the connection open until the client goes away, then release the
	// subscription so no further callbacks are delivered.
	go func() {
		defer func() {
			h.releaseSubscription(sess.UserID, friendID)
			h.hub.RemoveClient(sess.UserID, friendID, conn)
			conn.Close()
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func resolveBearer(sessions *session.Manager, header string) (session.Session, error) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		header = header[len(prefix):]
	}
	return sessions.Resolve(header)
}
