package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LoginCodeRepository stores short-lived verification codes for sign-in.
type LoginCodeRepository interface {
	Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error)
}

// LoginCodeRepo is a sqlx implementation of LoginCodeRepository.
type LoginCodeRepo struct {
	db *sqlx.DB
}

// NewLoginCodeRepo constructs a LoginCodeRepo.
func NewLoginCodeRepo(db *sqlx.DB) *LoginCodeRepo {
	return &LoginCodeRepo{db: db}
}

// Create stores a code, replacing any outstanding one for the user.
func (r *LoginCodeRepo) Create(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO login_codes (user_id, code, expires_at) VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`,
		userID, code, expiresAt)
	return err
}

// Consume deletes the code if it matches and has not expired.
// Returns true only when a valid code was consumed; codes are single use.
func (r *LoginCodeRepo) Consume(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_codes
        WHERE user_id=$1 AND code=$2 AND expires_at > NOW()`, userID, code)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
