package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/services"
)

// writeError maps domain errors to status codes. Anything unexpected is
// logged and answered generically.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, chat.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, chat.ErrEmptyContent), errors.Is(err, chat.ErrEmptyUsername),
		errors.Is(err, chat.ErrInvalidUsername), errors.Is(err, services.ErrInvalidRegistration):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, chat.ErrMessageNotFound), errors.Is(err, chat.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrUsernameTaken), errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
