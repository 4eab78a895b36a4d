package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FriendRepository resolves the caller's friend list.
type FriendRepository interface {
	GetFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	AddFriend(ctx context.Context, userID, friendID uuid.UUID) error
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// GetFriends calls the get_friends database function.
func (r *FriendRepo) GetFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var friends []uuid.UUID
	err := r.db.SelectContext(ctx, &friends, `SELECT friend_id FROM get_friends($1)`, userID)
	return friends, err
}

// AddFriend records a mutual friendship. Re-adding is a no-op.
func (r *FriendRepo) AddFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)
        ON CONFLICT (user_id, friend_id) DO NOTHING`, userID, friendID)
	return err
}
