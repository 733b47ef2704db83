package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines notification persistence.
type Repository interface {
	Insert(ctx context.Context, n Notification) error
	ListByRecipient(ctx context.Context, recipientUserID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, recipientUserID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO notifications
(id, recipient_user_id, message, status, created_on)
VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.RecipientUserID, n.Message, string(n.Status), n.CreatedOn)
	return err
}

func (r *repository) ListByRecipient(ctx context.Context, recipientUserID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT id, recipient_user_id, message, status, created_on
FROM notifications WHERE recipient_user_id = $1
ORDER BY created_on DESC LIMIT $2`, recipientUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		var status string
		var createdOn time.Time
		if err := rows.Scan(&n.ID, &n.RecipientUserID, &n.Message, &status, &createdOn); err != nil {
			return nil, err
		}
		n.Status = Status(status)
		n.CreatedOn = createdOn
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID, recipientUserID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET status = $1
WHERE id = $2 AND recipient_user_id = $3`, string(StatusRead), id, recipientUserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
