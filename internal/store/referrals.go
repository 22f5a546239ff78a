package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

func (r *PostgresRepository) ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, created_at, first_deposit_at IS NOT NULL
		FROM users
		WHERE referred_by = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.UserID, &ref.Username, &ref.JoinedAt, &ref.HasDeposited); err != nil {
			return nil, err
		}
		items = append(items, ref)
	}
	return items, rows.Err()
}

// RedeemReferral moves amount from the referral bucket into main.
func (r *PostgresRepository) RedeemReferral(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Balances, error) {
	var out *domain.Balances
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		balances, err := lockBalancesTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if balances.Referral < amount {
			return ErrInsufficientFunds
		}
		if balances.Referral, err = postTx(ctx, tx, posting{UserID: userID, Type: domain.TxReferralRedeem,
			Bucket: domain.BucketReferral, Amount: -amount, Description: "Referral balance redeemed"}); err != nil {
			return err
		}
		if balances.Main, err = postTx(ctx, tx, posting{UserID: userID, Type: domain.TxReferralRedeem,
			Bucket: domain.BucketMain, Amount: amount, Description: "Referral balance redeemed"}); err != nil {
			return err
		}
		balances.Total = balances.Main + balances.Investment + balances.Referral
		if err := insertActivityTx(ctx, tx, userID, "referral_redeemed", map[string]interface{}{"amount": amount}, ""); err != nil {
			return err
		}
		out = balances
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
