package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/daloestt55/connecta-sub001/internal/session"
)

// SessionContextKey is the gin context key the resolved session is stored under.
const SessionContextKey = "session"

// AuthMiddleware resolves the Bearer token into a session and aborts
// unauthenticated requests.
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		sess, err := sessions.Resolve(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(SessionContextKey, sess)
		c.Next()
	}
}

// SessionFromContext extracts the session set by AuthMiddleware.
func SessionFromContext(c *gin.Context) (session.Session, bool) {
	val, ok := c.Get(SessionContextKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := val.(session.Session)
	return sess, ok && sess.Valid()
}
