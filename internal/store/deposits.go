package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
)

const depositColumns = `d.id, d.user_id, u.username, d.amount, d.method, d.reference, d.status, d.admin_note,
	d.reviewed_by, d.reviewed_at, d.created_at`

func scanDeposit(row pgx.Row) (*domain.DepositRequest, error) {
	var (
		d      domain.DepositRequest
		status string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Username, &d.Amount, &d.Method, &d.Reference, &status, &d.AdminNote,
		&d.ReviewedBy, &d.ReviewedAt, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	d.Status = domain.DepositStatus(status)
	return &d, nil
}

func (r *PostgresRepository) queryDeposits(ctx context.Context, query string, args ...interface{}) ([]domain.DepositRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.DepositRequest
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) CreateDeposit(ctx context.Context, deposit *domain.DepositRequest) error {
	if deposit.ID == uuid.Nil {
		deposit.ID = uuid.New()
	}
	deposit.Status = domain.DepositPending

	return r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO deposit_requests (id, user_id, amount, method, reference, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, deposit.ID, deposit.UserID, deposit.Amount, deposit.Method, deposit.Reference, string(deposit.Status)).Scan(&deposit.CreatedAt)
		if err != nil {
			return err
		}
		return insertActivityTx(ctx, tx, deposit.UserID, "deposit_requested", map[string]interface{}{
			"deposit_id": deposit.ID.String(),
			"amount":     deposit.Amount,
			"method":     deposit.Method,
		}, "")
	})
}

func (r *PostgresRepository) ListDepositsByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.DepositRequest, error) {
	opts = opts.Normalize()
	return r.queryDeposits(ctx, `
		SELECT `+depositColumns+`
		FROM deposit_requests d JOIN users u ON u.id = d.user_id
		WHERE d.user_id = $1
		ORDER BY d.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, opts.Offset)
}

func (r *PostgresRepository) ListDeposits(ctx context.Context, status domain.DepositStatus, opts domain.ListOptions) ([]domain.DepositRequest, error) {
	opts = opts.Normalize()
	return r.queryDeposits(ctx, `
		SELECT `+depositColumns+`
		FROM deposit_requests d JOIN users u ON u.id = d.user_id
		WHERE ($1 = '' OR d.status = $1)
		ORDER BY d.created_at
		LIMIT $2 OFFSET $3
	`, string(status), opts.Limit, opts.Offset)
}

func lockDepositTx(ctx context.Context, tx pgx.Tx, depositID uuid.UUID) (*domain.DepositRequest, error) {
	return scanDeposit(tx.QueryRow(ctx, `
		SELECT `+depositColumns+`
		FROM deposit_requests d JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
		FOR UPDATE OF d
	`, depositID))
}

func reviewDepositTx(ctx context.Context, tx pgx.Tx, d *domain.DepositRequest, status domain.DepositStatus, adminID uuid.UUID, note string) error {
	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE deposit_requests
		SET status = $2, admin_note = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1
	`, d.ID, string(status), note, adminID, now); err != nil {
		return err
	}
	d.Status = status
	d.AdminNote = note
	d.ReviewedBy = &adminID
	d.ReviewedAt = &now
	return nil
}

// ApproveDeposit credits a pending deposit to main. On the user's first approved deposit the
// referrer, if any, earns bonusPercent of the amount in their referral bucket.
func (r *PostgresRepository) ApproveDeposit(ctx context.Context, depositID, adminID uuid.UUID, note string, bonusPercent decimal.Decimal) (*domain.DepositRequest, error) {
	var deposit *domain.DepositRequest
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		d, err := lockDepositTx(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if d.Status != domain.DepositPending {
			return ErrInvalidStatusTransition
		}
		if _, err := lockBalancesTx(ctx, tx, d.UserID); err != nil {
			return err
		}
		if _, err := postTx(ctx, tx, posting{UserID: d.UserID, Type: domain.TxDeposit, Bucket: domain.BucketMain,
			Amount: d.Amount, ReferenceID: refID(d.ID), Description: "Deposit via " + d.Method}); err != nil {
			return err
		}
		if err := reviewDepositTx(ctx, tx, d, domain.DepositApproved, adminID, note); err != nil {
			return err
		}

		// first_deposit_at is set exactly once; only that update pays the referral bonus.
		var referrerID *uuid.UUID
		err = tx.QueryRow(ctx, `
			UPDATE users SET first_deposit_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND first_deposit_at IS NULL
			RETURNING referred_by
		`, d.UserID).Scan(&referrerID)
		if err != nil && err != pgx.ErrNoRows {
			return err
		}
		if referrerID != nil {
			if err := creditReferralBonusTx(ctx, tx, r.exchange, *referrerID, d, bonusPercent); err != nil {
				return err
			}
		}

		who, err := userContactTx(ctx, tx, d.UserID)
		if err != nil {
			return err
		}
		if err := insertNotificationTx(ctx, tx, d.UserID, domain.CategoryAccount, "Deposit approved",
			fmt.Sprintf("Your deposit of %s has been credited to your main balance.", domain.FormatCents(d.Amount)), nil); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, d.UserID, "deposit_approved", map[string]interface{}{
			"deposit_id": d.ID.String(),
			"amount":     d.Amount,
			"admin_id":   adminID.String(),
		}, ""); err != nil {
			return err
		}
		if err := enqueueEventTx(ctx, tx, r.exchange, domain.EventDepositApproved, domain.LedgerEvent{
			UserID: d.UserID.String(), Email: who.Email, Username: who.Username,
			ReferenceID: d.ID.String(), Amount: d.Amount, Note: note,
		}); err != nil {
			return err
		}
		deposit = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

func creditReferralBonusTx(ctx context.Context, tx pgx.Tx, exchange string, referrerID uuid.UUID, d *domain.DepositRequest, bonusPercent decimal.Decimal) error {
	bonus := domain.PercentOf(d.Amount, bonusPercent)
	if bonus <= 0 {
		return nil
	}
	if _, err := lockBalancesTx(ctx, tx, referrerID); err != nil {
		return err
	}
	if _, err := postTx(ctx, tx, posting{UserID: referrerID, Type: domain.TxReferralBonus, Bucket: domain.BucketReferral,
		Amount: bonus, ReferenceID: refID(d.ID), Description: "Referral bonus from " + d.Username}); err != nil {
		return err
	}
	if err := insertNotificationTx(ctx, tx, referrerID, domain.CategoryAccount, "Referral bonus earned",
		fmt.Sprintf("%s made their first deposit. %s was added to your referral balance.", d.Username, domain.FormatCents(bonus)), nil); err != nil {
		return err
	}
	who, err := userContactTx(ctx, tx, referrerID)
	if err != nil {
		return err
	}
	return enqueueEventTx(ctx, tx, exchange, domain.EventReferralBonus, domain.LedgerEvent{
		UserID: referrerID.String(), Email: who.Email, Username: who.Username,
		ReferenceID: d.ID.String(), Amount: bonus, Note: d.Username,
	})
}

func (r *PostgresRepository) RejectDeposit(ctx context.Context, depositID, adminID uuid.UUID, note string) (*domain.DepositRequest, error) {
	var deposit *domain.DepositRequest
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		d, err := lockDepositTx(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if d.Status != domain.DepositPending {
			return ErrInvalidStatusTransition
		}
		if err := reviewDepositTx(ctx, tx, d, domain.DepositRejected, adminID, note); err != nil {
			return err
		}

		body := fmt.Sprintf("Your deposit of %s was rejected.", domain.FormatCents(d.Amount))
		if note != "" {
			body += " Reason: " + note
		}
		if err := insertNotificationTx(ctx, tx, d.UserID, domain.CategoryAccount, "Deposit rejected", body, nil); err != nil {
			return err
		}
		who, err := userContactTx(ctx, tx, d.UserID)
		if err != nil {
			return err
		}
		if err := enqueueEventTx(ctx, tx, r.exchange, domain.EventDepositRejected, domain.LedgerEvent{
			UserID: d.UserID.String(), Email: who.Email, Username: who.Username,
			ReferenceID: d.ID.String(), Amount: d.Amount, Note: note,
		}); err != nil {
			return err
		}
		deposit = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}
