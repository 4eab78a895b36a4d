package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/repositories"
	"github.com/daloestt55/connecta-sub001/internal/session"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListBetween(ctx context.Context, userID, friendID uuid.UUID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, userID, friendID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastBetween(ctx context.Context, userID, friendID uuid.UUID) (*models.Message, error) {
	args := m.Called(ctx, userID, friendID)
	var msg *models.Message
	if val := args.Get(0); val != nil {
		msg = val.(*models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, senderID, receiverID uuid.UUID) (int, error) {
	args := m.Called(ctx, senderID, receiverID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	args := m.Called(ctx, senderID, receiverID)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MessageRepositoryMock) DeleteOwn(ctx context.Context, messageID, senderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, messageID, senderID)
	return int64(args.Int(0)), args.Error(1)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) GetFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	var friends []uuid.UUID
	if val := args.Get(0); val != nil {
		friends = val.([]uuid.UUID)
	}
	return friends, args.Error(1)
}

func (m *FriendRepositoryMock) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

type ObjectRepositoryMock struct {
	mock.Mock
}

func (m *ObjectRepositoryMock) Put(ctx context.Context, obj models.StorageObject) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *ObjectRepositoryMock) Get(ctx context.Context, bucket, key string) (models.StorageObject, error) {
	args := m.Called(ctx, bucket, key)
	var obj models.StorageObject
	if val := args.Get(0); val != nil {
		obj = val.(models.StorageObject)
	}
	return obj, args.Error(1)
}

type LoginCodeRepositoryMock struct {
	mock.Mock
}

func (m *LoginCodeRepositoryMock) Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, code, expiresAt)
	return args.Error(0)
}

func (m *LoginCodeRepositoryMock) Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, userID, code)
	return args.Bool(0), args.Error(1)
}

type ConversationStoreMock struct {
	mock.Mock
}

func (m *ConversationStoreMock) SendMessage(ctx context.Context, sess session.Session, receiverID uuid.UUID, content string, msgType models.MessageType, file *models.FileMeta) (models.Message, error) {
	args := m.Called(ctx, sess, receiverID, content, msgType, file)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationStoreMock) GetMessages(ctx context.Context, sess session.Session, friendID uuid.UUID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, sess, friendID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ConversationStoreMock) MarkMessagesAsRead(ctx context.Context, sess session.Session, friendID uuid.UUID) error {
	args := m.Called(ctx, sess, friendID)
	return args.Error(0)
}

func (m *ConversationStoreMock) DeleteMessage(ctx context.Context, sess session.Session, messageID uuid.UUID) error {
	args := m.Called(ctx, sess, messageID)
	return args.Error(0)
}

func (m *ConversationStoreMock) GetConversations(ctx context.Context, sess session.Session) ([]models.Conversation, error) {
	args := m.Called(ctx, sess)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationStoreMock) UploadFile(ctx context.Context, sess session.Session, bucket, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, sess, bucket, name, contentType, data)
	return args.String(0), args.Error(1)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.ObjectRepository = (*ObjectRepositoryMock)(nil)
var _ repositories.LoginCodeRepository = (*LoginCodeRepositoryMock)(nil)
