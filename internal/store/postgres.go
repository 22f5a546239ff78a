/**
 * @description
 * PostgreSQL implementation of the Repository interface, plus the shared helpers every
 * money-moving transaction uses: balance row locks, ledger postings, in-app notifications,
 * activity records and outbox events.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - internal/domain: domain models.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stackvest/backend/internal/domain"
)

// PostgresRepository is the pgx-backed Repository.
type PostgresRepository struct {
	db       *pgxpool.Pool
	exchange string
}

// NewPostgresRepository creates a repository that enqueues events for exchange.
func NewPostgresRepository(db *pgxpool.Pool, exchange string) *PostgresRepository {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = "stackvest.events"
	}
	return &PostgresRepository{db: db, exchange: exchange}
}

// NewPool opens a pgx pool sized for the API and disables the statement cache so the pool
// works behind PgBouncer in transaction mode.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 20
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *PostgresRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockBalancesTx loads and row-locks the balances of userID.
func lockBalancesTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Balances, error) {
	var b domain.Balances
	err := tx.QueryRow(ctx, `
		SELECT user_id, main, investment, referral, total, updated_at
		FROM balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&b.UserID, &b.Main, &b.Investment, &b.Referral, &b.Total, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

// bucketColumn maps a bucket to its balances column. Buckets are a closed set, so the
// column name is never taken from input.
func bucketColumn(bucket domain.Bucket) (string, error) {
	switch bucket {
	case domain.BucketMain:
		return "main", nil
	case domain.BucketInvestment:
		return "investment", nil
	case domain.BucketReferral:
		return "referral", nil
	}
	return "", fmt.Errorf("unknown balance bucket %q", bucket)
}

type posting struct {
	UserID      uuid.UUID
	Type        domain.TransactionType
	Bucket      domain.Bucket
	Amount      int64
	ReferenceID *uuid.UUID
	Description string
}

// postTx applies a signed amount to one bucket and writes the matching ledger line.
// The caller must already hold the balances row lock.
func postTx(ctx context.Context, tx pgx.Tx, p posting) (int64, error) {
	column, err := bucketColumn(p.Bucket)
	if err != nil {
		return 0, err
	}

	var after int64
	query := fmt.Sprintf(`
		UPDATE balances
		SET %[1]s = %[1]s + $2, version = version + 1, updated_at = NOW()
		WHERE user_id = $1
		RETURNING %[1]s
	`, column)
	if err := tx.QueryRow(ctx, query, p.UserID, p.Amount).Scan(&after); err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrBalanceNotFound
		}
		return 0, mapBalanceError(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, bucket, amount, balance_after, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), p.UserID, string(p.Type), string(p.Bucket), p.Amount, after, p.ReferenceID, p.Description)
	if err != nil {
		return 0, fmt.Errorf("insert ledger line: %w", err)
	}
	return after, nil
}

func insertNotificationTx(ctx context.Context, q execer, userID uuid.UUID, category domain.NotificationCategory, title, body string, dedupeKey *string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notifications (id, user_id, category, title, body, dedupe_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING
	`, uuid.New(), userID, string(category), title, body, dedupeKey)
	return err
}

func insertActivityTx(ctx context.Context, q execer, userID uuid.UUID, action string, metadata map[string]interface{}, ipAddress string) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	blob, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO activity_logs (id, user_id, action, metadata, ip_address)
		VALUES ($1, $2, $3, $4::jsonb, $5)
	`, uuid.New(), userID, action, string(blob), ipAddress)
	return err
}

func enqueueEventTx(ctx context.Context, q execer, exchange, routingKey string, payload interface{}) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO event_outbox (exchange, routing_key, payload)
		VALUES ($1, $2, $3::jsonb)
	`, strings.TrimSpace(exchange), strings.TrimSpace(routingKey), string(blob))
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func refID(id uuid.UUID) *uuid.UUID {
	return &id
}
