package realtime

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daloestt55/connecta-sub001/internal/models"
)

var (
	receiverID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	senderID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	otherID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

// stubFetcher serves message rows from memory.
type stubFetcher struct {
	msgs map[uuid.UUID]models.Message
	err  error
}

func (f *stubFetcher) GetByID(_ context.Context, id uuid.UUID) (models.Message, error) {
	if f.err != nil {
		return models.Message{}, f.err
	}
	msg, ok := f.msgs[id]
	if !ok {
		return models.Message{}, assert.AnError
	}
	return msg, nil
}

// newTestListener builds a listener without a database connection; dispatch
// and connection-event handling are exercised directly.
func newTestListener() *Listener {
	return newFetchListener(nil)
}

func newFetchListener(messages MessageFetcher) *Listener {
	return &Listener{
		messages: messages,
		subs:     make(map[*Subscription]struct{}),
		done:     make(chan struct{}),
	}
}

func TestSubscriptionDeliversMatchingMessageOnce(t *testing.T) {
	l := newTestListener()

	var got []models.Message
	sub := l.Subscribe(receiverID, senderID, func(m models.Message) {
		got = append(got, m)
	})
	defer sub.Close()

	msg := models.Message{ID: uuid.New(), SenderID: senderID, ReceiverID: receiverID, Content: "hi"}
	l.dispatch(msg)

	require.Len(t, got, 1)
	assert.Equal(t, senderID, got[0].SenderID)
	assert.Equal(t, "hi", got[0].Content)
}

func TestSubscriptionFiltersOtherPairs(t *testing.T) {
	l := newTestListener()

	fired := 0
	sub := l.Subscribe(receiverID, senderID, func(models.Message) { fired++ })
	defer sub.Close()

	// Wrong sender.
	l.dispatch(models.Message{SenderID: otherID, ReceiverID: receiverID})
	// Wrong receiver.
	l.dispatch(models.Message{SenderID: senderID, ReceiverID: otherID})
	// Own outgoing message.
	l.dispatch(models.Message{SenderID: receiverID, ReceiverID: senderID})

	assert.Zero(t, fired)
}

func TestClosedSubscriptionStopsDelivery(t *testing.T) {
	l := newTestListener()

	fired := 0
	sub := l.Subscribe(receiverID, senderID, func(models.Message) { fired++ })

	msg := models.Message{SenderID: senderID, ReceiverID: receiverID}
	l.dispatch(msg)
	sub.Close()
	l.dispatch(msg)

	assert.Equal(t, 1, fired)
	assert.Equal(t, StateClosed, sub.State())

	l.mu.RLock()
	_, present := l.subs[sub]
	l.mu.RUnlock()
	assert.False(t, present)
}

func TestSubscriptionCloseIdempotent(t *testing.T) {
	l := newTestListener()
	sub := l.Subscribe(receiverID, senderID, func(models.Message) {})

	sub.Close()
	sub.Close()
	assert.Equal(t, StateClosed, sub.State())
}

func TestSubscriptionStateFollowsConnection(t *testing.T) {
	l := newTestListener()
	sub := l.Subscribe(receiverID, senderID, func(models.Message) {})
	defer sub.Close()

	assert.Equal(t, StateConnecting, sub.State())

	l.setConnected(true, StateActive)
	assert.Equal(t, StateActive, sub.State())

	l.setConnected(false, StateFailed)
	assert.Equal(t, StateFailed, sub.State())

	// A reconnect recovers a failed subscription.
	l.setConnected(true, StateActive)
	assert.Equal(t, StateActive, sub.State())
}

func TestSubscribeWhileConnectedStartsActive(t *testing.T) {
	l := newTestListener()
	l.setConnected(true, StateActive)

	sub := l.Subscribe(receiverID, senderID, func(models.Message) {})
	defer sub.Close()
	assert.Equal(t, StateActive, sub.State())
}

func TestClosedStateIsTerminal(t *testing.T) {
	l := newTestListener()
	sub := l.Subscribe(receiverID, senderID, func(models.Message) {})
	sub.Close()

	l.setConnected(true, StateActive)
	assert.Equal(t, StateClosed, sub.State())
}

// Notifications carry only the message id; the row is refetched, so content
// larger than the NOTIFY payload cap still arrives intact.
func TestNotificationRefetchesRow(t *testing.T) {
	id := uuid.New()
	content := strings.Repeat("x", 16000)
	fetcher := &stubFetcher{msgs: map[uuid.UUID]models.Message{
		id: {ID: id, SenderID: senderID, ReceiverID: receiverID, Content: content},
	}}
	l := newFetchListener(fetcher)

	var got []models.Message
	sub := l.Subscribe(receiverID, senderID, func(m models.Message) {
		got = append(got, m)
	})
	defer sub.Close()

	l.handleNotification(id.String())

	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Len(t, got[0].Content, 16000)
}

func TestNotificationMalformedPayloadDropped(t *testing.T) {
	l := newFetchListener(&stubFetcher{})

	fired := 0
	sub := l.Subscribe(receiverID, senderID, func(models.Message) { fired++ })
	defer sub.Close()

	l.handleNotification("not-a-uuid")
	assert.Zero(t, fired)
}

func TestNotificationFetchFailureDropped(t *testing.T) {
	l := newFetchListener(&stubFetcher{err: assert.AnError})

	fired := 0
	sub := l.Subscribe(receiverID, senderID, func(models.Message) { fired++ })
	defer sub.Close()

	l.handleNotification(uuid.NewString())
	assert.Zero(t, fired)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "failed", StateFailed.String())
}
