package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SystemSenderID marks engine-generated messages.
const SystemSenderID int64 = 0

// MessageType distinguishes user content from engine-generated notices.
type MessageType string

const (
	MessageUser   MessageType = "user"
	MessageSystem MessageType = "system"
)

// DeliveryStatus is the per-recipient delivery progression.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

// Rank orders the monotonic scale. failed sits outside the scale and ranks -1.
func (s DeliveryStatus) Rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	default:
		return -1
	}
}

// Supersedes reports whether this status may overwrite current. Ordered
// statuses only move forward; failed always applies and, once stored, blocks
// further ordered updates.
func (s DeliveryStatus) Supersedes(current DeliveryStatus) bool {
	if s == StatusFailed {
		return true
	}
	if current == StatusFailed {
		return false
	}
	return current.Rank() <= s.Rank()
}

// Valid reports whether the value is one of the known statuses.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// Message is a conversation message with its derived aggregate status.
type Message struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	ConversationID uuid.UUID      `db:"conversation_id" json:"conversation_id"`
	SenderID       int64          `db:"sender_id" json:"sender_id"`
	Content        string         `db:"content" json:"content"`
	Attachments    pq.StringArray `db:"attachments" json:"attachments,omitempty"`
	Type           MessageType    `db:"type" json:"type"`
	SeenBy         pq.Int64Array  `db:"seen_by" json:"seen_by"`
	Status         DeliveryStatus `db:"status" json:"status"`
	DeliveredAt    *time.Time     `db:"delivered_at" json:"delivered_at,omitempty"`
	ReadAt         *time.Time     `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	EditedAt       *time.Time     `db:"edited_at" json:"edited_at,omitempty"`
}

// SeenBySet reports whether a user has seen the message.
func (m Message) SeenByUser(userID int64) bool {
	for _, id := range m.SeenBy {
		if id == userID {
			return true
		}
	}
	return false
}

// DeliveryEntry is the per-recipient status record of one message.
type DeliveryEntry struct {
	MessageID uuid.UUID      `db:"message_id" json:"message_id"`
	UserID    int64          `db:"user_id" json:"user_id"`
	Status    DeliveryStatus `db:"status" json:"status"`
	UpdatedAt time.Time      `db:"updated_at" json:"timestamp"`
}

// SearchFilter scopes a full-text message search.
type SearchFilter struct {
	Query          string     `json:"query"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	SenderID       *int64     `json:"sender_id,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
	Limit          int        `json:"limit"`
	Skip           int        `json:"skip"`
}
