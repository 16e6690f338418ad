package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/handlers/dto"
	"github.com/thereayou/pollchat/internal/middleware"
)

type TypingHandler struct {
	chat  *chat.Service
	clock chat.Clock
	log   *slog.Logger
}

func NewTypingHandler(chatSvc *chat.Service, clock chat.Clock, log *slog.Logger) *TypingHandler {
	return &TypingHandler{chat: chatSvc, clock: clock, log: log}
}

func (h *TypingHandler) SetTyping(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	if err := h.chat.SetTyping(c.Request.Context(), userID, h.clock.Now()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func (h *TypingHandler) GetTyping(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	names, err := h.chat.TypingUsers(c.Request.Context(), userID, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTypingResponse(names))
}
