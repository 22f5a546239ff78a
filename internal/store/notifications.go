package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

func (r *PostgresRepository) ListNotifications(ctx context.Context, userID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	page := domain.ListOptions{Limit: opts.Limit, Offset: opts.Offset}.Normalize()

	clauses := []string{"user_id = $1"}
	args := []interface{}{userID}
	if opts.Category != "" {
		args = append(args, string(opts.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	switch strings.ToLower(opts.Status) {
	case "read":
		clauses = append(clauses, "read_at IS NOT NULL")
	case "unread":
		clauses = append(clauses, "read_at IS NULL")
	}
	args = append(args, page.Limit, page.Offset)

	query := fmt.Sprintf(`
		SELECT id, user_id, category, title, body, read_at, created_at
		FROM notifications
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(clauses, " AND "), len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Notification, 0, page.Limit)
	for rows.Next() {
		var (
			n        domain.Notification
			category string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &category, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Category = domain.NotificationCategory(category)
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&count)
	return count, err
}

func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateNotifications materialises one notification per recipient. With a dedupe key on the
// template, recipients that already hold that key are skipped, so a retried broadcast never
// duplicates. It returns the number of rows created.
func (r *PostgresRepository) CreateNotifications(ctx context.Context, userIDs []uuid.UUID, template domain.Notification) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	created := 0
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, userID := range userIDs {
			batch.Queue(`
				INSERT INTO notifications (id, user_id, category, title, body, dedupe_key)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (user_id, dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING
			`, uuid.New(), userID, string(template.Category), template.Title, template.Body, template.DedupeKey)
		}
		results := tx.SendBatch(ctx, batch)
		for range userIDs {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return mapRecipientError(err)
			}
			created += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
