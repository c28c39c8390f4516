package repository

import (
	"context"

	"github.com/deskflow/support-desk/internal/domain"
)

type notificationRepository struct {
	db DBTX
}

// NewNotificationRepository returns a Postgres-backed notification inbox.
func NewNotificationRepository(db DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_id, title, message, is_read, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query, n.RecipientID, n.Title, n.Message, n.Read, n.CreatedAt).Scan(&n.ID)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error) {
	if !validID(recipientID) {
		return nil, nil
	}
	const query = `
        SELECT id, recipient_id, title, message, is_read, created_at
        FROM notifications
        WHERE recipient_id=$1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if !validID(recipientID) {
		return 0, nil
	}
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id=$1 AND NOT is_read`, recipientID,
	).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	if !validID(id) || !validID(recipientID) {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read=TRUE WHERE id=$1 AND recipient_id=$2`, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, recipientID string) error {
	if !validID(recipientID) {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE recipient_id=$1`, recipientID)
	return err
}
