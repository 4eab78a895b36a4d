package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daloestt55/connecta-sub001/internal/mocks"
	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/realtime"
	"github.com/daloestt55/connecta-sub001/internal/session"
)

var (
	selfID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	friendID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func testSession() session.Session {
	return session.Session{UserID: selfID}
}

func newTestStore(messages *mocks.MessageRepositoryMock, friends *mocks.FriendRepositoryMock, objects *mocks.ObjectRepositoryMock) *Store {
	return New(messages, friends, objects, nil, "http://localhost:8083")
}

func TestSendMessagePersistsUnreadText(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	stored := models.Message{
		ID:         uuid.New(),
		SenderID:   selfID,
		ReceiverID: friendID,
		Content:    "hello",
		Type:       models.MessageTypeText,
		CreatedAt:  time.Now(),
	}
	messages.On("Insert", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.SenderID == selfID && m.ReceiverID == friendID &&
			m.Content == "hello" && m.Type == models.MessageTypeText && !m.Read
	})).Return(stored, nil).Once()

	msg, err := s.SendMessage(context.Background(), testSession(), friendID, "hello", models.MessageTypeText, nil)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, msg.ID)
	assert.False(t, msg.Read)
	messages.AssertExpectations(t)
}

func TestSendMessageDefaultsToText(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	messages.On("Insert", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Type == models.MessageTypeText
	})).Return(models.Message{Type: models.MessageTypeText}, nil).Once()

	_, err := s.SendMessage(context.Background(), testSession(), friendID, "hi", "", nil)
	require.NoError(t, err)
	messages.AssertExpectations(t)
}

// Content length is unbounded on the client side; large text goes through
// unchanged.
func TestSendMessageLargeContent(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	content := strings.Repeat("a", 64*1024)
	messages.On("Insert", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return len(m.Content) == 64*1024
	})).Return(models.Message{ID: uuid.New(), Content: content}, nil).Once()

	msg, err := s.SendMessage(context.Background(), testSession(), friendID, content, models.MessageTypeText, nil)
	require.NoError(t, err)
	assert.Len(t, msg.Content, 64*1024)
	messages.AssertExpectations(t)
}

func TestSendMessageUnauthenticated(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	_, err := s.SendMessage(context.Background(), session.Session{}, friendID, "hello", models.MessageTypeText, nil)
	require.ErrorIs(t, err, ErrUnauthenticated)
	messages.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestStore(new(mocks.MessageRepositoryMock), nil, nil)
	sess := testSession()
	ctx := context.Background()

	cases := []struct {
		name     string
		receiver uuid.UUID
		content  string
		msgType  models.MessageType
		file     *models.FileMeta
	}{
		{"empty receiver", uuid.Nil, "hi", models.MessageTypeText, nil},
		{"unknown type", friendID, "hi", "sticker", nil},
		{"text with attachment", friendID, "hi", models.MessageTypeText, &models.FileMeta{URL: "u"}},
		{"empty text content", friendID, "", models.MessageTypeText, nil},
		{"image without attachment", friendID, "", models.MessageTypeImage, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.SendMessage(ctx, sess, tc.receiver, tc.content, tc.msgType, tc.file)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestSendMessageBackendError(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	messages.On("Insert", mock.Anything, mock.Anything).Return(models.Message{}, assert.AnError).Once()

	_, err := s.SendMessage(context.Background(), testSession(), friendID, "hello", models.MessageTypeText, nil)
	var backend *BackendError
	require.ErrorAs(t, err, &backend)
	require.ErrorIs(t, err, assert.AnError)
}

// The limit bounds the most recent N messages; the window is returned oldest
// first. Three sent messages with limit 2 yield the last two, ascending.
func TestGetMessagesNewestWindowAscending(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	base := time.Now()
	m2 := models.Message{ID: uuid.New(), Content: "m2", CreatedAt: base.Add(time.Second)}
	m3 := models.Message{ID: uuid.New(), Content: "m3", CreatedAt: base.Add(2 * time.Second)}

	// Backend window is descending; m1 falls outside the limit.
	messages.On("ListBetween", mock.Anything, selfID, friendID, 2).
		Return([]models.Message{m3, m2}, nil).Once()

	msgs, err := s.GetMessages(context.Background(), testSession(), friendID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].Content)
	assert.Equal(t, "m3", msgs[1].Content)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))
	messages.AssertExpectations(t)
}

func TestGetMessagesDefaultLimit(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	messages.On("ListBetween", mock.Anything, selfID, friendID, DefaultMessageLimit).
		Return([]models.Message{}, nil).Once()

	_, err := s.GetMessages(context.Background(), testSession(), friendID, 0)
	require.NoError(t, err)
	messages.AssertExpectations(t)
}

func TestGetMessagesUnauthenticated(t *testing.T) {
	s := newTestStore(new(mocks.MessageRepositoryMock), nil, nil)

	_, err := s.GetMessages(context.Background(), session.Session{}, friendID, 10)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestMarkMessagesAsReadIdempotent(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	messages.On("MarkRead", mock.Anything, friendID, selfID).Return(3, nil).Once()
	messages.On("MarkRead", mock.Anything, friendID, selfID).Return(0, nil).Once()

	require.NoError(t, s.MarkMessagesAsRead(context.Background(), testSession(), friendID))
	require.NoError(t, s.MarkMessagesAsRead(context.Background(), testSession(), friendID))
	messages.AssertExpectations(t)
}

func TestDeleteMessageIgnoresZeroRows(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	s := newTestStore(messages, nil, nil)

	messageID := uuid.New()
	messages.On("DeleteOwn", mock.Anything, messageID, selfID).Return(0, nil).Once()

	require.NoError(t, s.DeleteMessage(context.Background(), testSession(), messageID))
	messages.AssertExpectations(t)
}

func TestGetConversationsUnreadCounts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	s := newTestStore(messages, friends, nil)

	quiet := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	friends.On("GetFriends", mock.Anything, selfID).Return([]uuid.UUID{friendID, quiet}, nil).Once()

	last := &models.Message{ID: uuid.New(), SenderID: friendID, ReceiverID: selfID, Content: "latest"}
	messages.On("LastBetween", mock.Anything, selfID, friendID).Return(last, nil).Once()
	messages.On("CountUnread", mock.Anything, friendID, selfID).Return(3, nil).Once()

	messages.On("LastBetween", mock.Anything, selfID, quiet).Return((*models.Message)(nil), nil).Once()
	messages.On("CountUnread", mock.Anything, quiet, selfID).Return(0, nil).Once()

	convs, err := s.GetConversations(context.Background(), testSession())
	require.NoError(t, err)
	require.Len(t, convs, 2)

	byFriend := map[uuid.UUID]models.Conversation{}
	for _, c := range convs {
		byFriend[c.FriendID] = c
	}
	assert.Equal(t, 3, byFriend[friendID].UnreadCount)
	assert.Equal(t, "latest", byFriend[friendID].LastMessage.Content)
	assert.Equal(t, 0, byFriend[quiet].UnreadCount)
	assert.Nil(t, byFriend[quiet].LastMessage)
	messages.AssertExpectations(t)
	friends.AssertExpectations(t)
}

func TestGetConversationsIsolatesFriendFailures(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	friends := new(mocks.FriendRepositoryMock)
	s := newTestStore(messages, friends, nil)

	broken := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	friends.On("GetFriends", mock.Anything, selfID).Return([]uuid.UUID{friendID, broken}, nil).Once()

	messages.On("LastBetween", mock.Anything, selfID, friendID).Return((*models.Message)(nil), nil).Once()
	messages.On("CountUnread", mock.Anything, friendID, selfID).Return(1, nil).Once()
	messages.On("LastBetween", mock.Anything, selfID, broken).Return((*models.Message)(nil), assert.AnError).Once()

	convs, err := s.GetConversations(context.Background(), testSession())
	require.Error(t, err)
	var backend *BackendError
	require.ErrorAs(t, err, &backend)
	require.Len(t, convs, 1)
	assert.Equal(t, friendID, convs[0].FriendID)
	messages.AssertExpectations(t)
}

func TestGetConversationsFriendListFailure(t *testing.T) {
	friends := new(mocks.FriendRepositoryMock)
	s := newTestStore(new(mocks.MessageRepositoryMock), friends, nil)

	friends.On("GetFriends", mock.Anything, selfID).Return(([]uuid.UUID)(nil), assert.AnError).Once()

	convs, err := s.GetConversations(context.Background(), testSession())
	require.Error(t, err)
	assert.Nil(t, convs)
}

type stubSubscriber struct {
	calls int
}

func (s *stubSubscriber) Subscribe(receiverID, senderID uuid.UUID, fn func(models.Message)) *realtime.Subscription {
	s.calls++
	return &realtime.Subscription{}
}

func TestSubscribeRequiresSession(t *testing.T) {
	sub := &stubSubscriber{}
	s := New(nil, nil, nil, sub, "")

	_, err := s.Subscribe(session.Session{}, friendID, func(models.Message) {})
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, sub.calls)
}

func TestSubscribeRequiresCallback(t *testing.T) {
	s := New(nil, nil, nil, &stubSubscriber{}, "")

	_, err := s.Subscribe(testSession(), friendID, nil)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestSubscribeWithoutListenerFails(t *testing.T) {
	s := New(nil, nil, nil, nil, "")

	_, err := s.Subscribe(testSession(), friendID, func(models.Message) {})
	var backend *BackendError
	require.ErrorAs(t, err, &backend)
}

func TestUnsubscribeNilSafe(t *testing.T) {
	s := New(nil, nil, nil, nil, "")
	s.Unsubscribe(nil)

	sub := &realtime.Subscription{}
	s.Unsubscribe(sub)
	s.Unsubscribe(sub)
	assert.Equal(t, realtime.StateClosed, sub.State())
}

func TestUploadFileKeyAndURL(t *testing.T) {
	objects := new(mocks.ObjectRepositoryMock)
	s := newTestStore(new(mocks.MessageRepositoryMock), nil, objects)

	var stored models.StorageObject
	objects.On("Put", mock.Anything, mock.MatchedBy(func(obj models.StorageObject) bool {
		stored = obj
		return obj.Bucket == DefaultBucket && obj.Size == 5
	})).Return(nil).Once()

	url, err := s.UploadFile(context.Background(), testSession(), "", "photo.png", "image/png", []byte("bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Key, selfID.String()+"/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".png"))
	assert.Equal(t, "http://localhost:8083/storage/chat-files/"+stored.Key, url)
	objects.AssertExpectations(t)
}

func TestUploadFileValidation(t *testing.T) {
	s := newTestStore(nil, nil, new(mocks.ObjectRepositoryMock))

	_, err := s.UploadFile(context.Background(), testSession(), "", "empty.bin", "", nil)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = s.UploadFile(context.Background(), session.Session{}, "", "x.bin", "", []byte("x"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}
