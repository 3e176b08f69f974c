package models

import "github.com/google/uuid"

// Outbound event names pushed to connected clients.
const (
	EventConversationCreated   = "conversation:created"
	EventConversationDeleted   = "conversation:deleted"
	EventMemberAdded           = "conversation:member-added"
	EventMemberRemoved         = "conversation:member-removed"
	EventInvited               = "conversation:invited"
	EventConversationRead      = "conversation:read"
	EventConversationMuted     = "conversation:muted"
	EventConversationPinned    = "conversation:pinned"
	EventConversationHidden    = "conversation:hidden"
	EventModeratorUpdated      = "conversation:moderator-updated"
	EventMessagesCleared       = "conversation:messages-cleared"
	EventMessageCreated        = "message:created"
	EventMessageUpdated        = "message:updated"
	EventMessageDeleted        = "message:deleted"
	EventMessageStatus         = "message:status"
	EventRequestAccepted       = "request:accepted"
	EventRequestDeclined       = "request:declined"
	EventTyping                = "typing"
	EventNicknameUpdated       = "nickname:updated"
)

// ServerEvent is the broadcast frame written to client connections.
type ServerEvent struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// MembershipEvent describes an add/remove/promote/demote on a conversation.
type MembershipEvent struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	ActorID        int64      `json:"actor_id"`
	TargetID       int64      `json:"target_id"`
	Role           MemberRole `json:"role,omitempty"`
}

// StatusEvent reports a delivery-status change on a message.
type StatusEvent struct {
	ConversationID uuid.UUID      `json:"conversation_id"`
	MessageID      uuid.UUID      `json:"message_id"`
	UserID         int64          `json:"user_id"`
	Status         DeliveryStatus `json:"status"`
	Aggregate      DeliveryStatus `json:"aggregate"`
}

// TypingEvent is the ephemeral typing indicator; never persisted.
type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         int64     `json:"user_id"`
	Typing         bool      `json:"typing"`
}
