package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

var ErrNicknameNotFound = errors.New("nickname not found")

// NicknameRepository owns the per-owner display aliases.
type NicknameRepository interface {
	Upsert(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64, nickname string) (models.Nickname, error)
	ListForOwner(ctx context.Context, conversationID uuid.UUID, ownerID int64) ([]models.Nickname, error)
	Delete(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64) error
}

// NicknameRepo is a sqlx implementation of NicknameRepository.
type NicknameRepo struct {
	db *sqlx.DB
}

// NewNicknameRepo constructs a NicknameRepo.
func NewNicknameRepo(db *sqlx.DB) *NicknameRepo {
	return &NicknameRepo{db: db}
}

// Upsert sets or replaces the nickname for the (conversation, owner, target) key.
func (r *NicknameRepo) Upsert(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64, nickname string) (models.Nickname, error) {
	var n models.Nickname
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO nicknames (conversation_id, owner_id, target_user_id, nickname)
         VALUES ($1, $2, $3, $4)
         ON CONFLICT (conversation_id, owner_id, target_user_id) DO UPDATE
             SET nickname=EXCLUDED.nickname, updated_at=NOW()
         RETURNING conversation_id, owner_id, target_user_id, nickname, updated_at`,
		conversationID, ownerID, targetUserID, nickname).StructScan(&n)
	return n, err
}

// ListForOwner returns the owner's nicknames scoped to one conversation.
func (r *NicknameRepo) ListForOwner(ctx context.Context, conversationID uuid.UUID, ownerID int64) ([]models.Nickname, error) {
	var nicknames []models.Nickname
	err := r.db.SelectContext(ctx, &nicknames,
		`SELECT conversation_id, owner_id, target_user_id, nickname, updated_at
         FROM nicknames WHERE conversation_id=$1 AND owner_id=$2 ORDER BY target_user_id ASC`,
		conversationID, ownerID)
	return nicknames, err
}

// Delete removes one nickname.
func (r *NicknameRepo) Delete(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM nicknames WHERE conversation_id=$1 AND owner_id=$2 AND target_user_id=$3`,
		conversationID, ownerID, targetUserID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNicknameNotFound
	}
	return nil
}
