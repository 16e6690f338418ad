package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/pollchat/internal/chat"
	"github.com/thereayou/pollchat/internal/handlers/dto"
	"github.com/thereayou/pollchat/internal/middleware"
)

type HTTPMessageHandler struct {
	chat  *chat.Service
	clock chat.Clock
	loc   *time.Location
	log   *slog.Logger
}

func NewHTTPMessageHandler(chatSvc *chat.Service, clock chat.Clock, loc *time.Location, log *slog.Logger) *HTTPMessageHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &HTTPMessageHandler{chat: chatSvc, clock: clock, loc: loc, log: log}
}

// GetMessages serves one poll: recent messages plus who is active and typing.
func (h *HTTPMessageHandler) GetMessages(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	snapshot, err := h.chat.PollState(c.Request.Context(), userID, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPollResponse(snapshot, h.loc))
}

func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.chat.PostMessage(c.Request.Context(), userID, req.Content, req.Formatted, h.clock.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.PostMessageResponse{Status: "success", ID: uint64(id)})
}

// UpdateMessage edits a message; only the author may do so.
func (h *HTTPMessageHandler) UpdateMessage(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	id, ok := messageID(c)
	if !ok {
		return
	}

	var req dto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chat.EditMessage(c.Request.Context(), id, userID, req.Content, h.clock.Now()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

// DeleteMessage removes a message permanently; only the author may do so.
func (h *HTTPMessageHandler) DeleteMessage(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	id, ok := messageID(c)
	if !ok {
		return
	}

	if err := h.chat.DeleteMessage(c.Request.Context(), id, userID, h.clock.Now()); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: "success"})
}

func messageID(c *gin.Context) (chat.MessageID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": chat.ErrMessageNotFound.Error()})
		return 0, false
	}
	return chat.MessageID(id), true
}
