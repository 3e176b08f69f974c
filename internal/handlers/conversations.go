package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/middleware"
	"github.com/vntam/chat-realtime-sub000/internal/service"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

// ConversationHandler serves the read-side REST mirror of the conversation
// commands. Mutations stay on the websocket.
type ConversationHandler struct {
	conversations *service.ConversationService
	directory     users.Directory
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations *service.ConversationService, directory users.Directory) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, directory: directory}
}

// ListConversations returns the caller's conversation list, pinned first.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID := middleware.UserID(c)
	limit, skip := pageParams(c)

	convs, err := h.conversations.List(c.Request.Context(), userID, limit, skip)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// GetConversation returns one conversation with its members.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conv, err := h.conversations.Get(c.Request.Context(), middleware.UserID(c), conversationID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.MessageOf(err)})
}

func pageParams(c *gin.Context) (limit, skip int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	skip, _ = strconv.Atoi(c.Query("skip"))
	return limit, skip
}
