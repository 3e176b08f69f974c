package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

// Broadcaster fans out server events to connected clients. Implemented by the
// ws hub; mocked in tests.
type Broadcaster interface {
	ToUser(userID int64, event string, payload any)
	ToUsers(userIDs []int64, event string, payload any)
	ToConversation(conversationID uuid.UUID, event string, payload any)
	EvictUser(conversationID uuid.UUID, userID int64)
}

// Notifier hands domain events to the external notification pipeline without
// blocking the command path.
type Notifier interface {
	Enqueue(name string, payload map[string]any)
}

const directoryTimeout = 1500 * time.Millisecond

// displayName resolves a user's display name, degrading to a placeholder so a
// directory outage never fails the parent command.
func displayName(ctx context.Context, dir users.Directory, userID int64) string {
	if dir == nil {
		return users.Placeholder(userID).Username
	}
	lookupCtx, cancel := context.WithTimeout(ctx, directoryTimeout)
	defer cancel()
	u, err := dir.GetUser(lookupCtx, userID)
	if err != nil {
		return users.Placeholder(userID).Username
	}
	return u.Username
}

// requireParticipant gates every conversation-scoped mutation.
func requireParticipant(conv models.Conversation, userID int64) error {
	if !conv.HasParticipant(userID) {
		return apperrors.Forbidden("not a conversation participant")
	}
	return nil
}

// requireAdmin gates admin-only group operations.
func requireAdmin(conv models.Conversation, userID int64) error {
	if !conv.IsAdmin(userID) {
		return apperrors.Forbidden("admin only")
	}
	return nil
}

// requireAdminOrModerator gates moderation actions.
func requireAdminOrModerator(conv models.Conversation, userID int64) error {
	if conv.IsAdmin(userID) || conv.RoleOf(userID) == models.RoleModerator {
		return nil
	}
	return apperrors.Forbidden("admin or moderator only")
}
