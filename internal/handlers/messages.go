package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/middleware"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/service"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

// MessageHandler serves the read-side REST mirror of the message commands.
type MessageHandler struct {
	messages  *service.MessageService
	directory users.Directory
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *service.MessageService, directory users.Directory) *MessageHandler {
	return &MessageHandler{messages: messages, directory: directory}
}

// ListMessages returns messages of one conversation, newest first, with
// best-effort sender names attached.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := middleware.UserID(c)
	limit, skip := pageParams(c)

	msgs, err := h.messages.List(c.Request.Context(), userID, conversationID, limit, skip)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.decorate(c, msgs)})
}

// UnreadCount returns the caller's unread total across conversations.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// SearchMessages runs a full-text search scoped to the caller's memberships.
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	filter := models.SearchFilter{Query: c.Query("q")}
	filter.Limit, filter.Skip = pageParams(c)

	if raw := c.Query("conversation_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
			return
		}
		filter.ConversationID = &id
	}
	if raw := c.Query("sender_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender id"})
			return
		}
		filter.SenderID = &id
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		filter.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		filter.To = &ts
	}

	msgs, err := h.messages.Search(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.decorate(c, msgs)})
}

func (h *MessageHandler) decorate(c *gin.Context, msgs []models.Message) []service.DecoratedMessage {
	senderIDs := make([]int64, 0, len(msgs))
	seen := map[int64]struct{}{}
	for _, m := range msgs {
		if m.SenderID == models.SystemSenderID {
			continue
		}
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	names := map[int64]string{}
	if len(senderIDs) > 0 {
		if fetched, err := h.directory.BulkUsers(c.Request.Context(), senderIDs); err == nil {
			for id, u := range fetched {
				names[id] = u.Username
			}
		}
	}

	out := make([]service.DecoratedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, service.DecoratedMessage{Message: m, SenderUsername: names[m.SenderID]})
	}
	return out
}
