package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/daloestt55/connecta-sub001/internal/models"
)

// State describes the lifecycle of a subscription.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Subscription is a live channel bound to inserted messages where the
// receiver is the owner and the sender is the chosen friend. It is owned by
// its creator and must be released with Close.
type Subscription struct {
	receiverID uuid.UUID
	senderID   uuid.UUID
	fn         func(models.Message)
	release    func(*Subscription)

	mu    sync.Mutex
	state State
}

// State reports the current lifecycle state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close releases the subscription. Closing stops future deliveries only;
// a delivery already in flight may still complete. Idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	release := s.release
	s.release = nil
	s.mu.Unlock()

	if release != nil {
		release(s)
	}
}

// setState transitions the subscription; Closed is terminal.
func (s *Subscription) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = state
}

// deliver invokes the callback when the message matches the bound pair and
// the subscription is still open.
func (s *Subscription) deliver(msg models.Message) {
	s.mu.Lock()
	closed := s.state == StateClosed
	s.mu.Unlock()
	if closed {
		return
	}
	if msg.ReceiverID != s.receiverID || msg.SenderID != s.senderID {
		return
	}
	s.fn(msg)
}
