package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/pkg/auth"
)

const (
	UserIDKey      = "userID"
	TokenKey       = "token"
	TokenExpiryKey = "tokenExpiry"
)

// AuthMiddleware checks the bearer token and stores the caller's id.
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist auth.Blacklist, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, expiresAt, err := jwtManager.UserID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		revoked, err := blacklist.Revoked(c.Request.Context(), token)
		if err != nil {
			log.Error("blacklist lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is blacklisted"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(TokenKey, token)
		c.Set(TokenExpiryKey, expiresAt)
		c.Next()
	}
}

// CurrentUser returns the authenticated caller or chat.ErrUnauthenticated.
func CurrentUser(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, chat.ErrUnauthenticated
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, chat.ErrUnauthenticated
	}
	return id, nil
}

// CurrentToken returns the raw bearer token and its expiry.
func CurrentToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(TokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(TokenExpiryKey), true
}
