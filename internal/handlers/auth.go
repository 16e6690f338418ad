package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/handlers/dto"
	"github.com/thereayou/pollchat/internal/middleware"
	"github.com/thereayou/pollchat/internal/services"
	"github.com/thereayou/pollchat/pkg/auth"
)

type AuthHandler struct {
	auth       services.AuthService
	chat       *chat.Service
	jwtManager *auth.JWTManager
	blacklist  auth.Blacklist
	clock      chat.Clock
	log        *slog.Logger
}

func NewAuthHandler(authSvc services.AuthService, chatSvc *chat.Service, jwtMgr *auth.JWTManager, blacklist auth.Blacklist, clock chat.Clock, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, chat: chatSvc, jwtManager: jwtMgr, blacklist: blacklist, clock: clock, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.auth.Register(c.Request.Context(), services.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("user registered", "user_id", id)
	c.JSON(http.StatusCreated, dto.RegisterResponse{ID: id.String()})
}

// Login verifies credentials, marks the user present and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.auth.Verify(c.Request.Context(), services.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	now := h.clock.Now()
	if err := h.chat.Join(c.Request.Context(), id, now); err != nil {
		writeError(c, h.log, err)
		return
	}
	h.issue(c, id)
}

// Guest logs in by username only; the user is created on first login.
func (h *AuthHandler) Guest(c *gin.Context) {
	var req dto.GuestLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.chat.JoinAsGuest(c.Request.Context(), req.Username, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.issue(c, id)
}

// Logout blacklists the token until it expires and clears presence.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if token, expiresAt, ok := middleware.CurrentToken(c); ok {
		if err := h.blacklist.Revoke(c.Request.Context(), token, expiresAt); err != nil {
			writeError(c, h.log, err)
			return
		}
	}

	if err := h.chat.Leave(c.Request.Context(), userID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func (h *AuthHandler) issue(c *gin.Context, userID uuid.UUID) {
	token, expiresAt, err := h.jwtManager.Generate(userID, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
