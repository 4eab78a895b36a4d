package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/daloestt55/connecta-sub001/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, content, created_at, read, type, file_url, file_name, file_size`

// MessageRepository defines the backend surface for the messages table.
type MessageRepository interface {
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	GetByID(ctx context.Context, messageID uuid.UUID) (models.Message, error)
	ListBetween(ctx context.Context, userID, friendID uuid.UUID, limit int) ([]models.Message, error)
	LastBetween(ctx context.Context, userID, friendID uuid.UUID) (*models.Message, error)
	CountUnread(ctx context.Context, senderID, receiverID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error)
	DeleteOwn(ctx context.Context, messageID, senderID uuid.UUID) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert stores a message; id and created_at are assigned by the backend.
func (r *MessageRepo) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	var out models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, content, read, type, file_url, file_name, file_size)
        VALUES ($1, $2, $3, FALSE, $4, $5, $6, $7)
        RETURNING `+messageColumns,
		msg.SenderID, msg.ReceiverID, msg.Content, msg.Type, msg.FileURL, msg.FileName, msg.FileSize).
		StructScan(&out)
	return out, err
}

// GetByID fetches a single message.
func (r *MessageRepo) GetByID(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	return msg, err
}

// ListBetween returns the newest messages exchanged between two users,
// in descending created_at order, truncated to limit.
func (r *MessageRepo) ListBetween(ctx context.Context, userID, friendID uuid.UUID, limit int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at DESC, id DESC
        LIMIT $3`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, friendID, limit)
	return msgs, err
}

// LastBetween returns the most recent message between two users, or nil.
func (r *MessageRepo) LastBetween(ctx context.Context, userID, friendID uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at DESC, id DESC
        LIMIT 1`
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, query, userID, friendID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// CountUnread counts unread messages from sender to receiver.
func (r *MessageRepo) CountUnread(ctx context.Context, senderID, receiverID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE sender_id=$1 AND receiver_id=$2 AND read = FALSE`, senderID, receiverID)
	return count, err
}

// MarkRead flips unread messages from sender to receiver to read.
// Returns the number of rows updated; zero is not an error.
func (r *MessageRepo) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read = TRUE
        WHERE sender_id=$1 AND receiver_id=$2 AND read = FALSE`, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteOwn removes a message only when senderID authored it.
// Deleting a foreign or nonexistent message affects zero rows.
func (r *MessageRepo) DeleteOwn(ctx context.Context, messageID, senderID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1 AND sender_id=$2`, messageID, senderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
