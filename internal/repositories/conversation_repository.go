package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ErrStaleRequestStatus reports a request-status transition attempted on a
// conversation that is no longer pending.
var ErrStaleRequestStatus = errors.New("request status is not pending")

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateGroup(ctx context.Context, creatorID int64, name, avatar string, memberIDs []int64) (models.Conversation, error)
	GetOrCreatePrivate(ctx context.Context, creatorID, otherID int64) (models.Conversation, bool, error)
	Get(ctx context.Context, id uuid.UUID) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int64, limit, skip int) ([]models.ConversationSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Members(ctx context.Context, id uuid.UUID) ([]models.Member, error)
	IsParticipant(ctx context.Context, id uuid.UUID, userID int64) (bool, error)
	AddMember(ctx context.Context, id uuid.UUID, userID int64) error
	RemoveMember(ctx context.Context, id uuid.UUID, userID int64) error
	SetRole(ctx context.Context, id uuid.UUID, userID int64, role models.MemberRole) error
	TransferAdmin(ctx context.Context, id uuid.UUID, oldAdminID, newAdminID int64) error
	SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error
	SetLastMessage(ctx context.Context, id, messageID uuid.UUID) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, type, name, avatar, creator_id, admin_id, request_status, last_message_id, created_at, updated_at`

// CreateGroup creates a group conversation and its members atomically. The
// creator becomes admin and groups start accepted.
func (r *ConversationRepo) CreateGroup(ctx context.Context, creatorID int64, name, avatar string, memberIDs []int64) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var conv models.Conversation
	id := uuid.New()
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, type, name, avatar, creator_id, admin_id, request_status)
         VALUES ($1, 'group', $2, $3, $4, $4, 'accepted')
         RETURNING `+conversationColumns,
		id, name, avatar, creatorID).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	// creator is always present and holds the admin seat
	memberSet := map[int64]models.MemberRole{creatorID: models.RoleAdmin}
	for _, uid := range memberIDs {
		if uid == creatorID {
			continue
		}
		memberSet[uid] = models.RoleMember
	}
	for uid, role := range memberSet {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, $3)`,
			conv.ID, uid, role); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}

	conv.Members, err = r.Members(ctx, conv.ID)
	return conv, err
}

func pairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// GetOrCreatePrivate returns the private conversation for the pair, creating it
// when absent. Creation is idempotent by the sorted pair key; the second return
// value reports whether a new conversation was created.
func (r *ConversationRepo) GetOrCreatePrivate(ctx context.Context, creatorID, otherID int64) (models.Conversation, bool, error) {
	key := pairKey(creatorID, otherID)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE pair_key=$1`, key)
	if err == nil {
		conv.Members, err = r.Members(ctx, conv.ID)
		return conv, false, err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// ON CONFLICT DO NOTHING covers the concurrent-create race; the loser
	// re-reads the winner's row.
	id := uuid.New()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, type, creator_id, request_status, pair_key)
         VALUES ($1, 'private', $2, 'pending', $3)
         ON CONFLICT (pair_key) DO NOTHING`,
		id, creatorID, key)
	if err != nil {
		return models.Conversation{}, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return models.Conversation{}, false, err
	}
	if inserted > 0 {
		for _, uid := range []int64{creatorID, otherID} {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, 'member')`,
				id, uid); err != nil {
				return models.Conversation{}, false, err
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Conversation{}, false, err
	}

	if err = r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE pair_key=$1`, key); err != nil {
		return models.Conversation{}, false, err
	}
	conv.Members, err = r.Members(ctx, conv.ID)
	return conv, inserted > 0, err
}

// Get fetches a conversation and its members.
func (r *ConversationRepo) Get(ctx context.Context, id uuid.UUID) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, err
	}
	conv.Members, err = r.Members(ctx, id)
	return conv, err
}

// ListForUser returns the caller's conversations joined with their settings
// overlay, excluding hidden ones, pinned first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64, limit, skip int) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.type, c.name, c.avatar, c.creator_id, c.admin_id, c.request_status,
            c.last_message_id, c.created_at, c.updated_at,
            COALESCE(s.pinned, FALSE) AS pinned,
            COALESCE(s.pinned_order, 0) AS pinned_order,
            COALESCE(s.muted, FALSE) AS muted,
            s.muted_until
        FROM conversations c
        INNER JOIN conversation_members cm ON cm.conversation_id = c.id AND cm.user_id = $1
        LEFT JOIN conversation_settings s ON s.conversation_id = c.id AND s.user_id = $1
        WHERE COALESCE(s.hidden, FALSE) = FALSE
        ORDER BY COALESCE(s.pinned, FALSE) DESC, COALESCE(s.pinned_order, 0) ASC, c.updated_at DESC
        LIMIT $2 OFFSET $3`
	var result []models.ConversationSummary
	err := r.db.SelectContext(ctx, &result, query, userID, ClampLimit(limit), ClampSkip(skip))
	return result, err
}

// Delete removes the conversation; messages, delivery rows, nicknames and
// settings cascade at the schema level.
func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// Members returns all member rows of a conversation.
func (r *ConversationRepo) Members(ctx context.Context, id uuid.UUID) ([]models.Member, error) {
	var members []models.Member
	err := r.db.SelectContext(ctx, &members,
		`SELECT conversation_id, user_id, role, joined_at FROM conversation_members
         WHERE conversation_id=$1 ORDER BY joined_at ASC`, id)
	return members, err
}

// IsParticipant checks current membership against the store.
func (r *ConversationRepo) IsParticipant(ctx context.Context, id uuid.UUID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`,
		id, userID)
	return exists, err
}

// AddMember appends a participant with the member role.
func (r *ConversationRepo) AddMember(ctx context.Context, id uuid.UUID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_members (conversation_id, user_id, role) VALUES ($1, $2, 'member')`,
		id, userID)
	return err
}

// RemoveMember drops a participant row; the role goes with it.
func (r *ConversationRepo) RemoveMember(ctx context.Context, id uuid.UUID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM conversation_members WHERE conversation_id=$1 AND user_id=$2`, id, userID)
	return err
}

// SetRole updates a member's role.
func (r *ConversationRepo) SetRole(ctx context.Context, id uuid.UUID, userID int64, role models.MemberRole) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation_members SET role=$3 WHERE conversation_id=$1 AND user_id=$2`,
		id, userID, role)
	return err
}

// TransferAdmin moves the single admin seat atomically.
func (r *ConversationRepo) TransferAdmin(ctx context.Context, id uuid.UUID, oldAdminID, newAdminID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE conversations SET admin_id=$2, updated_at=NOW() WHERE id=$1`, id, newAdminID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE conversation_members SET role='member' WHERE conversation_id=$1 AND user_id=$2`,
		id, oldAdminID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE conversation_members SET role='admin' WHERE conversation_id=$1 AND user_id=$2`,
		id, newAdminID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetRequestStatus transitions pending -> accepted/declined. The guard makes
// concurrent accept/decline mutually exclusive; losers get ErrStaleRequestStatus.
func (r *ConversationRepo) SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET request_status=$2, updated_at=NOW()
         WHERE id=$1 AND request_status='pending'`, id, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStaleRequestStatus
	}
	return nil
}

// SetLastMessage moves the conversation's last-message pointer.
func (r *ConversationRepo) SetLastMessage(ctx context.Context, id, messageID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$2, updated_at=NOW() WHERE id=$1`, id, messageID)
	return err
}
