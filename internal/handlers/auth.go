package handlers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daloestt55/connecta-sub001/internal/repositories"
	"github.com/daloestt55/connecta-sub001/internal/session"
	"github.com/daloestt55/connecta-sub001/internal/telemetry"
)

const loginCodeTTL = 10 * time.Minute

// AuthHandler implements the verification-code sign-in flow. Delivering the
// code to the user (bot message, email) is an external collaborator; the
// handler only issues and checks codes.
type AuthHandler struct {
	codes    repositories.LoginCodeRepository
	sessions *session.Manager
	audit    *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(codes repositories.LoginCodeRepository, sessions *session.Manager, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{codes: codes, sessions: sessions, audit: audit}
}

// RequestLoginCode issues a short-lived single-use code for the user.
func (h *AuthHandler) RequestLoginCode(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, err := newLoginCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate code"})
		return
	}

	expiresAt := time.Now().Add(loginCodeTTL)
	if err := h.codes.Create(c.Request.Context(), req.UserID, code, expiresAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store code"})
		return
	}

	log.Printf("login code issued user_id=%s", req.UserID)
	userID := req.UserID.String()
	h.audit.Emit(c.Request.Context(), "login_code_requested", "ok", "", requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"expires_at": expiresAt})
}

// VerifyLoginCode consumes a code and mints a session token.
func (h *AuthHandler) VerifyLoginCode(c *gin.Context) {
	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		Code   string    `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.codes.Consume(c.Request.Context(), req.UserID, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify code"})
		return
	}
	if !ok {
		userID := req.UserID.String()
		h.audit.Emit(c.Request.Context(), "login_verify", "rejected", "wrong or expired code", requestIDFromContext(c), &userID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong or expired code"})
		return
	}

	token, expiresAt, err := h.sessions.Issue(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	userID := req.UserID.String()
	h.audit.Emit(c.Request.Context(), "login_verify", "ok", "", requestIDFromContext(c), &userID)
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}

func newLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
