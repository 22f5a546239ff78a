package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

// subscribeTx (re)subscribes an address. An existing token is kept so links in earlier
// newsletters keep working.
func subscribeTx(ctx context.Context, q execer, email, token string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO newsletter_subscribers (email, subscribed, unsubscribe_token)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (email) DO UPDATE SET subscribed = TRUE, updated_at = NOW()
	`, normalizeEmail(email), token)
	return err
}

func (r *PostgresRepository) Subscribe(ctx context.Context, email, unsubscribeToken string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := subscribeTx(ctx, tx, email, unsubscribeToken); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `UPDATE users SET newsletter_opt_in = TRUE, updated_at = NOW() WHERE email = $1`, normalizeEmail(email))
		return err
	})
}

func (r *PostgresRepository) Unsubscribe(ctx context.Context, unsubscribeToken string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		var email string
		err := tx.QueryRow(ctx, `
			UPDATE newsletter_subscribers SET subscribed = FALSE, updated_at = NOW()
			WHERE unsubscribe_token = $1
			RETURNING email
		`, unsubscribeToken).Scan(&email)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrSubscriberNotFound
			}
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE users SET newsletter_opt_in = FALSE, updated_at = NOW() WHERE email = $1`, email)
		return err
	})
}

func (r *PostgresRepository) ListSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT email, subscribed, unsubscribe_token, created_at
		FROM newsletter_subscribers
		WHERE subscribed
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.NewsletterSubscriber
	for rows.Next() {
		var s domain.NewsletterSubscriber
		if err := rows.Scan(&s.Email, &s.Subscribed, &s.UnsubscribeToken, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// ListNewsletterUserIDs returns active users subscribed to the newsletter.
func (r *PostgresRepository) ListNewsletterUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.queryIDs(ctx, `
		SELECT u.id FROM users u
		JOIN newsletter_subscribers s ON s.email = u.email AND s.subscribed
		WHERE u.status = 'active'
		ORDER BY u.created_at
	`)
}

// EnqueueNewsletter writes every dispatch batch to the outbox in one transaction.
func (r *PostgresRepository) EnqueueNewsletter(ctx context.Context, batches []domain.NewsletterDispatchEvent) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		for _, batch := range batches {
			if err := enqueueEventTx(ctx, tx, r.exchange, domain.EventNewsletterDispatch, batch); err != nil {
				return err
			}
		}
		return nil
	})
}
