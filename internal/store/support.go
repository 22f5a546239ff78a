package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

const supportColumns = `id, user_id, name, email, subject, body, status, admin_reply, replied_at, created_at`

func scanSupportMessage(row pgx.Row) (*domain.SupportMessage, error) {
	var (
		m      domain.SupportMessage
		status string
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.Subject, &m.Body, &status, &m.AdminReply, &m.RepliedAt, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSupportMessageNotFound
		}
		return nil, err
	}
	m.Status = domain.SupportStatus(status)
	return &m, nil
}

func (r *PostgresRepository) querySupportMessages(ctx context.Context, query string, args ...interface{}) ([]domain.SupportMessage, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SupportMessage
	for rows.Next() {
		m, err := scanSupportMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) CreateSupportMessage(ctx context.Context, msg *domain.SupportMessage) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.Status = domain.SupportOpen
	msg.Email = normalizeEmail(msg.Email)
	return r.db.QueryRow(ctx, `
		INSERT INTO support_messages (id, user_id, name, email, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, msg.ID, msg.UserID, msg.Name, msg.Email, msg.Subject, msg.Body, string(msg.Status)).Scan(&msg.CreatedAt)
}

func (r *PostgresRepository) ListSupportMessagesByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.SupportMessage, error) {
	opts = opts.Normalize()
	return r.querySupportMessages(ctx, `
		SELECT `+supportColumns+` FROM support_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, opts.Offset)
}

func (r *PostgresRepository) ListSupportMessages(ctx context.Context, status domain.SupportStatus, opts domain.ListOptions) ([]domain.SupportMessage, error) {
	opts = opts.Normalize()
	return r.querySupportMessages(ctx, `
		SELECT `+supportColumns+` FROM support_messages
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`, string(status), opts.Limit, opts.Offset)
}

// ReplySupportMessage stores the admin reply and enqueues it for email delivery. Closed
// messages cannot be replied to.
func (r *PostgresRepository) ReplySupportMessage(ctx context.Context, messageID uuid.UUID, reply string, now time.Time) (*domain.SupportMessage, error) {
	var out *domain.SupportMessage
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		m, err := scanSupportMessage(tx.QueryRow(ctx, `SELECT `+supportColumns+` FROM support_messages WHERE id = $1 FOR UPDATE`, messageID))
		if err != nil {
			return err
		}
		if m.Status == domain.SupportClosed {
			return ErrInvalidStatusTransition
		}

		repliedAt := now.UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE support_messages SET status = 'replied', admin_reply = $2, replied_at = $3 WHERE id = $1
		`, m.ID, reply, repliedAt); err != nil {
			return err
		}
		m.Status = domain.SupportReplied
		m.AdminReply = reply
		m.RepliedAt = &repliedAt

		if m.UserID != nil {
			if err := insertNotificationTx(ctx, tx, *m.UserID, domain.CategorySystem, "Support replied: "+m.Subject, reply, nil); err != nil {
				return err
			}
		}
		if err := enqueueEventTx(ctx, tx, r.exchange, domain.EventSupportReplied, domain.SupportRepliedEvent{
			TicketID: m.ID.String(),
			Email:    m.Email,
			Name:     m.Name,
			Subject:  m.Subject,
			Reply:    reply,
		}); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) CloseSupportMessage(ctx context.Context, messageID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE support_messages SET status = 'closed' WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSupportMessageNotFound
	}
	return nil
}
