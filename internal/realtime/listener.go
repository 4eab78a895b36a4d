package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/observability"
)

// Channel is the Postgres notification channel the insert trigger emits on.
// The payload is the inserted message id; NOTIFY payloads are capped at 8000
// bytes, so the row itself is refetched here.
const Channel = "message_inserted"

const (
	minReconnectInterval = time.Second
	maxReconnectInterval = 30 * time.Second

	fetchTimeout = 5 * time.Second
)

// MessageFetcher loads the row behind a notification.
type MessageFetcher interface {
	GetByID(ctx context.Context, messageID uuid.UUID) (models.Message, error)
}

// Listener consumes message insert notifications from Postgres and fans them
// out to matching subscriptions. It guarantees at most one callback
// invocation per delivered event per subscription; missed events during a
// reconnect are not replayed.
type Listener struct {
	pl       *pq.Listener
	messages MessageFetcher

	mu        sync.RWMutex
	subs      map[*Subscription]struct{}
	connected bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewListener connects to Postgres and starts listening on Channel.
func NewListener(dsn string, messages MessageFetcher) (*Listener, error) {
	l := &Listener{
		messages: messages,
		subs:     make(map[*Subscription]struct{}),
		done:     make(chan struct{}),
	}

	pl := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, l.handleEvent)
	if err := pl.Listen(Channel); err != nil {
		_ = pl.Close()
		return nil, err
	}
	l.pl = pl

	go l.run()
	return l, nil
}

// Subscribe registers a channel for messages sent by senderID to receiverID.
// The subscription starts Connecting and becomes Active once the underlying
// connection is established.
func (l *Listener) Subscribe(receiverID, senderID uuid.UUID, fn func(models.Message)) *Subscription {
	sub := &Subscription{
		receiverID: receiverID,
		senderID:   senderID,
		fn:         fn,
		release:    l.remove,
		state:      StateConnecting,
	}

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	connected := l.connected
	l.mu.Unlock()

	if connected {
		sub.setState(StateActive)
	}
	return sub
}

// Close shuts the listener down and closes all remaining subscriptions.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		if l.pl != nil {
			err = l.pl.Close()
		}

		l.mu.Lock()
		subs := make([]*Subscription, 0, len(l.subs))
		for sub := range l.subs {
			subs = append(subs, sub)
		}
		l.mu.Unlock()

		for _, sub := range subs {
			sub.Close()
		}
	})
	return err
}

func (l *Listener) remove(sub *Subscription) {
	l.mu.Lock()
	delete(l.subs, sub)
	l.mu.Unlock()
}

func (l *Listener) run() {
	for {
		select {
		case n := <-l.pl.Notify:
			if n == nil {
				// nil marks a re-established connection; no replay happens.
				continue
			}
			l.handleNotification(n.Extra)
		case <-l.done:
			return
		}
	}
}

// handleNotification resolves a notification payload into the inserted row
// and dispatches it. Malformed or unfetchable events are dropped.
func (l *Listener) handleNotification(payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		log.Printf("realtime: dropping malformed notification: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	msg, err := l.messages.GetByID(ctx, id)
	if err != nil {
		log.Printf("realtime: dropping event %s: %v", id, err)
		return
	}
	l.dispatch(msg)
}

// dispatch delivers the message to every matching subscription.
func (l *Listener) dispatch(msg models.Message) {
	l.mu.RLock()
	subs := make([]*Subscription, 0, len(l.subs))
	for sub := range l.subs {
		subs = append(subs, sub)
	}
	l.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(msg)
	}
	observability.IncRealtimeEvent("message_inserted")
}

func (l *Listener) handleEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected, pq.ListenerEventReconnected:
		l.setConnected(true, StateActive)
	case pq.ListenerEventDisconnected:
		l.setConnected(false, StateConnecting)
		if err != nil {
			log.Printf("realtime: disconnected: %v", err)
		}
	case pq.ListenerEventConnectionAttemptFailed:
		l.setConnected(false, StateFailed)
		if err != nil {
			log.Printf("realtime: connection attempt failed: %v", err)
		}
	}
}

func (l *Listener) setConnected(connected bool, state State) {
	l.mu.Lock()
	l.connected = connected
	subs := make([]*Subscription, 0, len(l.subs))
	for sub := range l.subs {
		subs = append(subs, sub)
	}
	l.mu.Unlock()

	for _, sub := range subs {
		sub.setState(state)
	}
}
