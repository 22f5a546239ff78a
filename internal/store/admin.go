package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

// AdjustBalance applies a signed admin correction to one bucket. The result may not go
// below zero.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, userID, adminID uuid.UUID, adj domain.BalanceAdjustment) (*domain.Balances, error) {
	var out *domain.Balances
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		balances, err := lockBalancesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balances.Of(adj.Bucket)+adj.Amount < 0 {
			return ErrInsufficientFunds
		}
		if _, err := postTx(ctx, tx, posting{UserID: userID, Type: domain.TxAdminAdjustment, Bucket: adj.Bucket,
			Amount: adj.Amount, Description: adj.Reason}); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, userID, "balance_adjusted", map[string]interface{}{
			"bucket":   string(adj.Bucket),
			"amount":   adj.Amount,
			"reason":   adj.Reason,
			"admin_id": adminID.String(),
		}, ""); err != nil {
			return err
		}
		out, err = lockBalancesTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReconcileInvestmentBucket recomputes the investment bucket as the principal of the user's
// active investments and repairs drift with an admin_adjustment line. It returns nil when
// the bucket was already correct.
func (r *PostgresRepository) ReconcileInvestmentBucket(ctx context.Context, userID uuid.UUID) (*domain.BalanceRepair, error) {
	var repair *domain.BalanceRepair
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		balances, err := lockBalancesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		var expected int64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount), 0)::bigint FROM investments WHERE user_id = $1 AND status = 'active'
		`, userID).Scan(&expected); err != nil {
			return err
		}
		if expected == balances.Investment {
			return nil
		}

		if _, err := postTx(ctx, tx, posting{UserID: userID, Type: domain.TxAdminAdjustment, Bucket: domain.BucketInvestment,
			Amount: expected - balances.Investment, Description: "Investment balance reconciled"}); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, userID, "balance_reconciled", map[string]interface{}{
			"recorded": balances.Investment,
			"expected": expected,
		}, ""); err != nil {
			return err
		}
		repair = &domain.BalanceRepair{UserID: userID, Recorded: balances.Investment, Expected: expected}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repair, nil
}

func (r *PostgresRepository) GetPlatformStats(ctx context.Context, today time.Time) (*domain.PlatformStats, error) {
	day := domain.TruncateDay(today)
	var s domain.PlatformStats
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE status = 'suspended'),
			(SELECT COALESCE(SUM(main), 0)::bigint FROM balances),
			(SELECT COALESCE(SUM(investment), 0)::bigint FROM balances),
			(SELECT COALESCE(SUM(referral), 0)::bigint FROM balances),
			(SELECT COUNT(*) FROM deposit_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending'),
			(SELECT COUNT(*) FROM investments WHERE status = 'active'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM investments WHERE status = 'active'),
			(SELECT COALESCE(SUM(amount), 0)::bigint FROM gain_credits WHERE created_at >= $1 AND created_at < $2),
			(SELECT COUNT(*) FROM support_messages WHERE status = 'open')
	`, day, day.AddDate(0, 0, 1)).Scan(&s.Users, &s.SuspendedUsers, &s.MainTotal, &s.InvestmentTotal, &s.ReferralTotal,
		&s.PendingDeposits, &s.PendingWithdrawals, &s.ActiveInvestments, &s.ActivePrincipal, &s.GainsPaidToday, &s.OpenTickets)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
