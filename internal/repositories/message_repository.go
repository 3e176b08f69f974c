package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for messages.
type MessageRepository interface {
	Create(ctx context.Context, conversationID uuid.UUID, senderID int64, content string, attachments []string, msgType models.MessageType) (models.Message, error)
	Get(ctx context.Context, messageID uuid.UUID) (models.Message, error)
	ListForUser(ctx context.Context, conversationID uuid.UUID, clearedBefore *time.Time, limit, skip int) ([]models.Message, error)
	Edit(ctx context.Context, messageID uuid.UUID, content string) (models.Message, error)
	Delete(ctx context.Context, messageID uuid.UUID) error
	Search(ctx context.Context, userID int64, filter models.SearchFilter) ([]models.Message, error)
	AppendSeenBy(ctx context.Context, messageID uuid.UUID, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int, error)
	ListUnreadIDs(ctx context.Context, conversationID uuid.UUID, userID int64) ([]uuid.UUID, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, attachments, type, seen_by, status, delivered_at, read_at, created_at, edited_at`

// Create stores a message, seeds the sender's delivery row and moves the
// conversation's last-message pointer in one transaction. System messages skip
// the delivery pipeline entirely.
func (r *MessageRepo) Create(ctx context.Context, conversationID uuid.UUID, senderID int64, content string, attachments []string, msgType models.MessageType) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if attachments == nil {
		attachments = []string{}
	}
	seenBy := []int64{}
	if msgType == models.MessageUser {
		seenBy = append(seenBy, senderID)
	}

	var msg models.Message
	id := uuid.New()
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, attachments, type, seen_by, status)
         VALUES ($1, $2, $3, $4, $5, $6, $7, 'sent')
         RETURNING `+messageColumns,
		id, conversationID, senderID, content, pq.StringArray(attachments), msgType, pq.Int64Array(seenBy)).
		StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	if msgType == models.MessageUser {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO message_delivery (message_id, user_id, status) VALUES ($1, $2, 'sent')`,
			msg.ID, senderID); err != nil {
			return models.Message{}, err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$2, updated_at=NOW() WHERE id=$1`,
		conversationID, msg.ID); err != nil {
		return models.Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListForUser returns newest-first messages, honoring the caller's clear-history
// cursor when present.
func (r *MessageRepo) ListForUser(ctx context.Context, conversationID uuid.UUID, clearedBefore *time.Time, limit, skip int) ([]models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE conversation_id=$1 AND ($2::timestamptz IS NULL OR created_at > $2)
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, conversationID, clearedBefore, ClampLimit(limit), ClampSkip(skip))
	return msgs, err
}

// Edit replaces the content in place.
func (r *MessageRepo) Edit(ctx context.Context, messageID uuid.UUID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`UPDATE messages SET content=$2, edited_at=NOW() WHERE id=$1 RETURNING `+messageColumns,
		messageID, content).StructScan(&msg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Delete hard-deletes a message; delivery rows cascade.
func (r *MessageRepo) Delete(ctx context.Context, messageID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Search runs a relevance-ranked full-text match, scoped server-side to the
// caller's conversations.
func (r *MessageRepo) Search(ctx context.Context, userID int64, filter models.SearchFilter) ([]models.Message, error) {
	query := `SELECT m.id, m.conversation_id, m.sender_id, m.content, m.attachments, m.type,
            m.seen_by, m.status, m.delivered_at, m.read_at, m.created_at, m.edited_at
        FROM messages m
        INNER JOIN conversation_members cm ON cm.conversation_id = m.conversation_id AND cm.user_id = $1
        WHERE to_tsvector('simple', m.content) @@ plainto_tsquery('simple', $2)
          AND ($3::uuid IS NULL OR m.conversation_id = $3)
          AND ($4::bigint IS NULL OR m.sender_id = $4)
          AND ($5::timestamptz IS NULL OR m.created_at >= $5)
          AND ($6::timestamptz IS NULL OR m.created_at <= $6)
        ORDER BY ts_rank(to_tsvector('simple', m.content), plainto_tsquery('simple', $2)) DESC,
            m.created_at DESC
        LIMIT $7 OFFSET $8`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query,
		userID, filter.Query, filter.ConversationID, filter.SenderID, filter.From, filter.To,
		ClampLimit(filter.Limit), ClampSkip(filter.Skip))
	return msgs, err
}

// AppendSeenBy adds the user to seen_by unless already present.
func (r *MessageRepo) AppendSeenBy(ctx context.Context, messageID uuid.UUID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET seen_by = array_append(seen_by, $2)
         WHERE id=$1 AND NOT (seen_by @> ARRAY[$2]::bigint[])`,
		messageID, userID)
	return err
}

// UnreadCount counts unseen user messages across all of the user's conversations.
func (r *MessageRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages m
         INNER JOIN conversation_members cm ON cm.conversation_id = m.conversation_id AND cm.user_id = $1
         WHERE m.sender_id <> $1 AND m.type = 'user' AND NOT (m.seen_by @> ARRAY[$1]::bigint[])`,
		userID)
	return count, err
}

// ListUnreadIDs returns ids of messages in the conversation the user has not
// read yet, oldest first.
func (r *MessageRepo) ListUnreadIDs(ctx context.Context, conversationID uuid.UUID, userID int64) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT m.id FROM messages m
         WHERE m.conversation_id=$1 AND m.sender_id <> $2 AND m.type = 'user'
           AND NOT EXISTS (
               SELECT 1 FROM message_delivery d
               WHERE d.message_id = m.id AND d.user_id = $2 AND d.status = 'read')
         ORDER BY m.created_at ASC`,
		conversationID, userID)
	return ids, err
}
