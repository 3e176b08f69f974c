package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

// SettingsRepository owns the per-user conversation overlay.
type SettingsRepository interface {
	Get(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error)
	SetPinned(ctx context.Context, userID int64, conversationID uuid.UUID, pinned bool, order int) (models.ConversationSettings, error)
	SetMuted(ctx context.Context, userID int64, conversationID uuid.UUID, muted bool, until *time.Time) (models.ConversationSettings, error)
	SetHidden(ctx context.Context, userID int64, conversationID uuid.UUID, hidden bool) (models.ConversationSettings, error)
	ClearHistory(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error)
}

// SettingsRepo is a sqlx implementation of SettingsRepository.
type SettingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo constructs a SettingsRepo.
func NewSettingsRepo(db *sqlx.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

const settingsColumns = `user_id, conversation_id, pinned, pinned_order, muted, muted_until, hidden, hidden_at, last_message_cleared, updated_at`

// Get loads the overlay, returning zero-value defaults when no row exists yet.
func (r *SettingsRepo) Get(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error) {
	var s models.ConversationSettings
	err := r.db.GetContext(ctx, &s,
		`SELECT `+settingsColumns+` FROM conversation_settings WHERE user_id=$1 AND conversation_id=$2`,
		userID, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConversationSettings{UserID: userID, ConversationID: conversationID}, nil
	}
	return s, err
}

// SetPinned upserts the pin flag and its order slot.
func (r *SettingsRepo) SetPinned(ctx context.Context, userID int64, conversationID uuid.UUID, pinned bool, order int) (models.ConversationSettings, error) {
	var s models.ConversationSettings
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversation_settings (user_id, conversation_id, pinned, pinned_order)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (user_id, conversation_id) DO UPDATE
             SET pinned=EXCLUDED.pinned, pinned_order=EXCLUDED.pinned_order, updated_at=NOW()
         RETURNING `+settingsColumns,
		userID, conversationID, pinned, order).StructScan(&s)
	return s, err
}

// SetMuted upserts the mute flag and optional expiry.
func (r *SettingsRepo) SetMuted(ctx context.Context, userID int64, conversationID uuid.UUID, muted bool, until *time.Time) (models.ConversationSettings, error) {
	var s models.ConversationSettings
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversation_settings (user_id, conversation_id, muted, muted_until)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (user_id, conversation_id) DO UPDATE
             SET muted=EXCLUDED.muted, muted_until=EXCLUDED.muted_until, updated_at=NOW()
         RETURNING `+settingsColumns,
		userID, conversationID, muted, until).StructScan(&s)
	return s, err
}

// SetHidden upserts the hidden flag; hidden_at tracks when hiding happened.
func (r *SettingsRepo) SetHidden(ctx context.Context, userID int64, conversationID uuid.UUID, hidden bool) (models.ConversationSettings, error) {
	var s models.ConversationSettings
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversation_settings (user_id, conversation_id, hidden, hidden_at)
         VALUES ($1, $2, $3, CASE WHEN $3 THEN NOW() ELSE NULL END)
         ON CONFLICT (user_id, conversation_id) DO UPDATE
             SET hidden=EXCLUDED.hidden,
                 hidden_at=CASE WHEN EXCLUDED.hidden THEN NOW() ELSE NULL END,
                 updated_at=NOW()
         RETURNING `+settingsColumns,
		userID, conversationID, hidden).StructScan(&s)
	return s, err
}

// ClearHistory moves the caller's visibility cursor to now. Messages are not
// deleted; other participants are unaffected.
func (r *SettingsRepo) ClearHistory(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error) {
	var s models.ConversationSettings
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversation_settings (user_id, conversation_id, last_message_cleared)
         VALUES ($1, $2, NOW())
         ON CONFLICT (user_id, conversation_id) DO UPDATE
             SET last_message_cleared=NOW(), updated_at=NOW()
         RETURNING `+settingsColumns,
		userID, conversationID).StructScan(&s)
	return s, err
}
