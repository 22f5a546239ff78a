package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

func (r *PostgresRepository) GetBalances(ctx context.Context, userID uuid.UUID) (*domain.Balances, error) {
	var b domain.Balances
	err := r.db.QueryRow(ctx, `
		SELECT user_id, main, investment, referral, total, updated_at
		FROM balances
		WHERE user_id = $1
	`, userID).Scan(&b.UserID, &b.Main, &b.Investment, &b.Referral, &b.Total, &b.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error) {
	page := domain.ListOptions{Limit: opts.Limit, Offset: opts.Offset}.Normalize()

	query := `
		SELECT id, user_id, type, bucket, amount, balance_after, reference_id, description, created_at
		FROM transactions
		WHERE user_id = $1`
	args := []interface{}{userID}
	if opts.Type != "" {
		args = append(args, string(opts.Type))
		query += ` AND type = $2`
	}
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Transaction, 0, page.Limit)
	for rows.Next() {
		var (
			item   domain.Transaction
			txType string
			bucket string
		)
		if err := rows.Scan(&item.ID, &item.UserID, &txType, &bucket, &item.Amount, &item.BalanceAfter,
			&item.ReferenceID, &item.Description, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Type = domain.TransactionType(txType)
		item.Bucket = domain.Bucket(bucket)
		items = append(items, item)
	}
	return items, rows.Err()
}

// SumTransactions totals every ledger line of one type for a user.
func (r *PostgresRepository) SumTransactions(ctx context.Context, userID uuid.UUID, txType domain.TransactionType) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::bigint FROM transactions WHERE user_id = $1 AND type = $2
	`, userID, string(txType)).Scan(&total)
	return total, err
}

func (r *PostgresRepository) GetDashboard(ctx context.Context, userID uuid.UUID) (*domain.Dashboard, error) {
	balances, err := r.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}

	dash := &domain.Dashboard{Balances: *balances}
	err = r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM investments WHERE user_id = $1 AND status = 'active'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM investments WHERE user_id = $1 AND status = 'active'),
			(SELECT COALESCE(SUM(total_earned), 0)::bigint FROM investments WHERE user_id = $1),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM deposit_requests WHERE user_id = $1 AND status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM withdrawal_requests WHERE user_id = $1 AND status = 'pending'),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL)
	`, userID).Scan(&dash.ActiveInvestments, &dash.ActivePrincipal, &dash.TotalEarned,
		&dash.PendingDeposits, &dash.PendingWithdrawals, &dash.UnreadNotifications)
	if err != nil {
		return nil, err
	}
	return dash, nil
}
