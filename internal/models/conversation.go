package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationType distinguishes two-party chats from groups.
type ConversationType string

const (
	ConversationPrivate ConversationType = "private"
	ConversationGroup   ConversationType = "group"
)

// RequestStatus tracks the contact-request state of a private conversation.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// MemberRole is the per-participant role inside a conversation.
type MemberRole string

const (
	RoleMember    MemberRole = "member"
	RoleModerator MemberRole = "moderator"
	RoleAdmin     MemberRole = "admin"
)

// Conversation is the authoritative conversation document.
type Conversation struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	Type          ConversationType `db:"type" json:"type"`
	Name          string           `db:"name" json:"name,omitempty"`
	Avatar        string           `db:"avatar" json:"avatar,omitempty"`
	CreatorID     int64            `db:"creator_id" json:"creator_id"`
	AdminID       *int64           `db:"admin_id" json:"admin_id,omitempty"`
	RequestStatus RequestStatus    `db:"request_status" json:"request_status"`
	LastMessageID *uuid.UUID       `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`

	Members []Member `db:"-" json:"members,omitempty"`
}

// Member is one participant row of a conversation.
type Member struct {
	ConversationID uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	Role           MemberRole `db:"role" json:"role"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`
}

// ParticipantIDs returns the user ids of all members.
func (c Conversation) ParticipantIDs() []int64 {
	ids := make([]int64, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasParticipant reports membership of a user.
func (c Conversation) HasParticipant(userID int64) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the role of a user, or empty when not a member.
func (c Conversation) RoleOf(userID int64) MemberRole {
	for _, m := range c.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// IsAdmin reports whether the user holds the single admin seat.
func (c Conversation) IsAdmin(userID int64) bool {
	return c.AdminID != nil && *c.AdminID == userID
}

// ConversationSummary is the list-view projection joined with the caller's
// settings overlay.
type ConversationSummary struct {
	Conversation
	Pinned      bool       `db:"pinned" json:"pinned"`
	PinnedOrder int        `db:"pinned_order" json:"pinned_order,omitempty"`
	Muted       bool       `db:"muted" json:"muted"`
	MutedUntil  *time.Time `db:"muted_until" json:"muted_until,omitempty"`
}
