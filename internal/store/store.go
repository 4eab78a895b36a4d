package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/daloestt55/connecta-sub001/internal/models"
	"github.com/daloestt55/connecta-sub001/internal/observability"
	"github.com/daloestt55/connecta-sub001/internal/realtime"
	"github.com/daloestt55/connecta-sub001/internal/repositories"
	"github.com/daloestt55/connecta-sub001/internal/session"
)

// DefaultMessageLimit bounds GetMessages when the caller passes no limit.
const DefaultMessageLimit = 50

// DefaultBucket is the storage bucket used for chat attachments.
const DefaultBucket = "chat-files"

// conversationFanout bounds the concurrent per-friend fetches in GetConversations.
const conversationFanout = 8

// Subscriber opens realtime push channels for inserted messages.
type Subscriber interface {
	Subscribe(receiverID, senderID uuid.UUID, fn func(models.Message)) *realtime.Subscription
}

// Store mediates message send/fetch/read-state/subscribe operations between
// the UI and the backend. It owns no persistent state; the backend is the
// single source of truth.
type Store struct {
	messages repositories.MessageRepository
	friends  repositories.FriendRepository
	objects  repositories.ObjectRepository
	realtime Subscriber

	publicBaseURL string
}

// New constructs a Store. The realtime subscriber may be nil, in which case
// Subscribe reports an error instead of opening channels.
func New(messages repositories.MessageRepository, friends repositories.FriendRepository, objects repositories.ObjectRepository, rt Subscriber, publicBaseURL string) *Store {
	return &Store{
		messages:      messages,
		friends:       friends,
		objects:       objects,
		realtime:      rt,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// SendMessage persists a new message with read=false; the backend assigns
// id and created_at. The write never partially applies.
func (s *Store) SendMessage(ctx context.Context, sess session.Session, receiverID uuid.UUID, content string, msgType models.MessageType, file *models.FileMeta) (models.Message, error) {
	if !sess.Valid() {
		return models.Message{}, ErrUnauthenticated
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if !msgType.Valid() {
		return models.Message{}, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown message type %q", msgType)}
	}
	if receiverID == uuid.Nil {
		return models.Message{}, &ValidationError{Field: "receiver_id", Reason: "must not be empty"}
	}
	if msgType == models.MessageTypeText {
		if file != nil {
			return models.Message{}, &ValidationError{Field: "file", Reason: "text messages carry no attachment"}
		}
		if content == "" {
			return models.Message{}, &ValidationError{Field: "content", Reason: "text messages require content"}
		}
	} else if file == nil || file.URL == "" {
		return models.Message{}, &ValidationError{Field: "file", Reason: string(msgType) + " messages require an attachment"}
	}

	msg := models.Message{
		SenderID:   sess.UserID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
	}
	if file != nil {
		msg.FileURL = &file.URL
		msg.FileName = &file.Name
		msg.FileSize = &file.Size
	}

	out, err := s.messages.Insert(ctx, msg)
	if err != nil {
		observability.IncStoreOp("send_message", "error")
		return models.Message{}, backendErr("send message", err)
	}
	observability.IncStoreOp("send_message", "ok")
	return out, nil
}

// GetMessages returns messages exchanged with the friend in ascending
// created_at order. The limit bounds the most recent N messages: the backend
// query orders descending before truncation and the window is reversed here.
func (s *Store) GetMessages(ctx context.Context, sess session.Session, friendID uuid.UUID, limit int) ([]models.Message, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	msgs, err := s.messages.ListBetween(ctx, sess.UserID, friendID, limit)
	if err != nil {
		observability.IncStoreOp("get_messages", "error")
		return nil, backendErr("get messages", err)
	}

	// Oldest first for the caller.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	observability.IncStoreOp("get_messages", "ok")
	return msgs, nil
}

// MarkMessagesAsRead flips all unread messages from the friend to read.
// Idempotent: with no unread rows it succeeds with no effect.
func (s *Store) MarkMessagesAsRead(ctx context.Context, sess session.Session, friendID uuid.UUID) error {
	if !sess.Valid() {
		return ErrUnauthenticated
	}

	if _, err := s.messages.MarkRead(ctx, friendID, sess.UserID); err != nil {
		observability.IncStoreOp("mark_read", "error")
		return backendErr("mark messages as read", err)
	}
	observability.IncStoreOp("mark_read", "ok")
	return nil
}

// DeleteMessage removes a message the caller authored. Deleting a foreign or
// nonexistent message affects zero rows and is not reported as an error.
func (s *Store) DeleteMessage(ctx context.Context, sess session.Session, messageID uuid.UUID) error {
	if !sess.Valid() {
		return ErrUnauthenticated
	}

	if _, err := s.messages.DeleteOwn(ctx, messageID, sess.UserID); err != nil {
		observability.IncStoreOp("delete_message", "error")
		return backendErr("delete message", err)
	}
	observability.IncStoreOp("delete_message", "ok")
	return nil
}

// GetConversations assembles one conversation per friend, fetching each
// friend's last message and unread count concurrently. Per-friend failures
// are isolated: failed friends are skipped and their errors joined into the
// returned error alongside the partial result.
func (s *Store) GetConversations(ctx context.Context, sess session.Session) ([]models.Conversation, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}

	friendIDs, err := s.friends.GetFriends(ctx, sess.UserID)
	if err != nil {
		observability.IncStoreOp("get_conversations", "error")
		return nil, backendErr("get friends", err)
	}

	results := make([]*models.Conversation, len(friendIDs))
	var mu sync.Mutex
	var fetchErrs []error

	var g errgroup.Group
	g.SetLimit(conversationFanout)
	for i, friendID := range friendIDs {
		i, friendID := i, friendID
		g.Go(func() error {
			last, err := s.messages.LastBetween(ctx, sess.UserID, friendID)
			if err != nil {
				mu.Lock()
				fetchErrs = append(fetchErrs, fmt.Errorf("friend %s: %w", friendID, err))
				mu.Unlock()
				return nil
			}
			unread, err := s.messages.CountUnread(ctx, friendID, sess.UserID)
			if err != nil {
				mu.Lock()
				fetchErrs = append(fetchErrs, fmt.Errorf("friend %s: %w", friendID, err))
				mu.Unlock()
				return nil
			}
			results[i] = &models.Conversation{FriendID: friendID, LastMessage: last, UnreadCount: unread}
			return nil
		})
	}
	_ = g.Wait()

	conversations := make([]models.Conversation, 0, len(friendIDs))
	for _, c := range results {
		if c != nil {
			conversations = append(conversations, *c)
		}
	}

	if len(fetchErrs) > 0 {
		observability.IncStoreOp("get_conversations", "partial")
		return conversations, backendErr("get conversations", errors.Join(fetchErrs...))
	}
	observability.IncStoreOp("get_conversations", "ok")
	return conversations, nil
}

// Subscribe opens a push channel delivering each inserted message from the
// friend to the caller exactly once, in backend emission order. Missed events
// are not replayed on reconnect.
func (s *Store) Subscribe(sess session.Session, friendID uuid.UUID, fn func(models.Message)) (*realtime.Subscription, error) {
	if !sess.Valid() {
		return nil, ErrUnauthenticated
	}
	if fn == nil {
		return nil, &ValidationError{Field: "callback", Reason: "must not be nil"}
	}
	if s.realtime == nil {
		return nil, backendErr("subscribe", errors.New("realtime listener not configured"))
	}

	sub := s.realtime.Subscribe(sess.UserID, friendID, fn)
	observability.IncStoreOp("subscribe", "ok")
	return sub, nil
}

// Unsubscribe releases a subscription. Safe to call with a nil or already
// released handle.
func (s *Store) Unsubscribe(sub *realtime.Subscription) {
	if sub == nil {
		return
	}
	sub.Close()
}

// UploadFile stores a blob under {user_id}/{unix_nano}{ext} in the bucket and
// returns its public URL.
func (s *Store) UploadFile(ctx context.Context, sess session.Session, bucket, name, contentType string, data []byte) (string, error) {
	if !sess.Valid() {
		return "", ErrUnauthenticated
	}
	if len(data) == 0 {
		return "", &ValidationError{Field: "data", Reason: "must not be empty"}
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%d%s", sess.UserID, time.Now().UnixNano(), path.Ext(name))
	obj := models.StorageObject{
		Bucket:      bucket,
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if err := s.objects.Put(ctx, obj); err != nil {
		observability.IncStoreOp("upload_file", "error")
		return "", backendErr("upload file", err)
	}
	observability.IncStoreOp("upload_file", "ok")
	return s.PublicURL(bucket, key), nil
}

// PublicURL resolves the public URL for an object in a bucket.
func (s *Store) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/%s/%s", s.publicBaseURL, bucket, key)
}
