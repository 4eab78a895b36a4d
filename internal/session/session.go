package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Session identifies the authenticated caller. Every store operation takes
// it explicitly; there is no ambient current-user lookup.
type Session struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// Valid reports whether the session carries a usable identity.
func (s Session) Valid() bool {
	return s.UserID != uuid.Nil
}

// Claims are the JWT claims minted for a signed-in user.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager issues and resolves session tokens. The signing key is injected
// rather than read from package state so tests can construct their own.
type Manager struct {
	key []byte
	ttl time.Duration
}

// NewManager constructs a Manager with an HS256 signing key.
func NewManager(key []byte, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{key: key, ttl: ttl}
}

// Issue mints a token for the user.
func (m *Manager) Issue(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("user id cannot be empty")
	}

	expiresAt := time.Now().Add(m.ttl)
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	return token, expiresAt, err
}

// Resolve validates a token and returns the session it encodes.
func (m *Manager) Resolve(tokenString string) (Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return Session{}, ErrInvalidToken
	}

	sess := Session{UserID: userID}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}
