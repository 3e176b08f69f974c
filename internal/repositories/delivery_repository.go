package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

// DeliveryRepository owns the per-recipient delivery-status rows and the
// message-level aggregate columns.
type DeliveryRepository interface {
	UpsertStatus(ctx context.Context, messageID uuid.UUID, userID int64, status models.DeliveryStatus) (bool, error)
	Entries(ctx context.Context, messageID uuid.UUID) ([]models.DeliveryEntry, error)
	ApplyAggregate(ctx context.Context, messageID uuid.UUID, status models.DeliveryStatus) error
}

// DeliveryRepo is a sqlx implementation of DeliveryRepository.
type DeliveryRepo struct {
	db *sqlx.DB
}

// NewDeliveryRepo constructs a DeliveryRepo.
func NewDeliveryRepo(db *sqlx.DB) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// UpsertStatus applies a monotonic status update for one recipient. The ordering
// check runs inside the upsert itself so concurrent duplicate reports cannot
// regress a row; the CASE ranks mirror models.DeliveryStatus.Supersedes.
// Returns whether the write took effect; stale updates are ignored silently.
func (r *DeliveryRepo) UpsertStatus(ctx context.Context, messageID uuid.UUID, userID int64, status models.DeliveryStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message_delivery (message_id, user_id, status, updated_at)
         VALUES ($1, $2, $3, NOW())
         ON CONFLICT (message_id, user_id) DO UPDATE
             SET status = EXCLUDED.status, updated_at = NOW()
             WHERE EXCLUDED.status = 'failed'
                OR (CASE message_delivery.status
                        WHEN 'sent' THEN 0 WHEN 'delivered' THEN 1 WHEN 'read' THEN 2 ELSE 3 END
                    <= CASE EXCLUDED.status
                        WHEN 'sent' THEN 0 WHEN 'delivered' THEN 1 WHEN 'read' THEN 2 ELSE -1 END)`,
		messageID, userID, status)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Entries returns all delivery rows of a message.
func (r *DeliveryRepo) Entries(ctx context.Context, messageID uuid.UUID) ([]models.DeliveryEntry, error) {
	var entries []models.DeliveryEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT message_id, user_id, status, updated_at FROM message_delivery
         WHERE message_id=$1 ORDER BY user_id ASC`, messageID)
	return entries, err
}

// ApplyAggregate writes the recomputed message-level status. deliveredAt and
// readAt are set once and never reset.
func (r *DeliveryRepo) ApplyAggregate(ctx context.Context, messageID uuid.UUID, status models.DeliveryStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status=$2,
            delivered_at = CASE WHEN $2 IN ('delivered', 'read') THEN COALESCE(delivered_at, NOW()) ELSE delivered_at END,
            read_at = CASE WHEN $2 = 'read' THEN COALESCE(read_at, NOW()) ELSE read_at END
         WHERE id=$1`,
		messageID, status)
	return err
}
