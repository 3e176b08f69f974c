package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationSettings is one user's private overlay on a conversation. It never
// leaks to, or affects, any other participant.
type ConversationSettings struct {
	UserID             int64      `db:"user_id" json:"user_id"`
	ConversationID     uuid.UUID  `db:"conversation_id" json:"conversation_id"`
	Pinned             bool       `db:"pinned" json:"pinned"`
	PinnedOrder        int        `db:"pinned_order" json:"pinned_order,omitempty"`
	Muted              bool       `db:"muted" json:"muted"`
	MutedUntil         *time.Time `db:"muted_until" json:"muted_until,omitempty"`
	Hidden             bool       `db:"hidden" json:"hidden"`
	HiddenAt           *time.Time `db:"hidden_at" json:"hidden_at,omitempty"`
	LastMessageCleared *time.Time `db:"last_message_cleared" json:"last_message_cleared,omitempty"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Nickname is a display-only alias one user assigns to another inside a single
// conversation.
type Nickname struct {
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	OwnerID        int64     `db:"owner_id" json:"owner_id"`
	TargetUserID   int64     `db:"target_user_id" json:"target_user_id"`
	Nickname       string    `db:"nickname" json:"nickname"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
