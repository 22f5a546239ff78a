package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

const withdrawalColumns = `w.id, w.user_id, u.username, w.amount, w.method, w.destination, w.status, w.admin_note,
	w.reviewed_by, w.reviewed_at, w.created_at`

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var (
		w      domain.WithdrawalRequest
		status string
	)
	err := row.Scan(&w.ID, &w.UserID, &w.Username, &w.Amount, &w.Method, &w.Destination, &status, &w.AdminNote,
		&w.ReviewedBy, &w.ReviewedAt, &w.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	w.Status = domain.WithdrawalStatus(status)
	return &w, nil
}

func (r *PostgresRepository) queryWithdrawals(ctx context.Context, query string, args ...interface{}) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

// CreateWithdrawal holds the requested amount from main and records the pending request.
func (r *PostgresRepository) CreateWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.Status = domain.WithdrawalPending

	return r.withTx(ctx, func(tx pgx.Tx) error {
		balances, err := lockBalancesTx(ctx, tx, w.UserID)
		if err != nil {
			return err
		}
		if balances.Main < w.Amount {
			return ErrInsufficientFunds
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO withdrawal_requests (id, user_id, amount, method, destination, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, w.ID, w.UserID, w.Amount, w.Method, w.Destination, string(w.Status)).Scan(&w.CreatedAt)
		if err != nil {
			return err
		}
		if _, err := postTx(ctx, tx, posting{UserID: w.UserID, Type: domain.TxWithdrawal, Bucket: domain.BucketMain,
			Amount: -w.Amount, ReferenceID: refID(w.ID), Description: "Withdrawal via " + w.Method}); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, w.UserID, "withdrawal_requested", map[string]interface{}{
			"withdrawal_id": w.ID.String(),
			"amount":        w.Amount,
			"method":        w.Method,
		}, ""); err != nil {
			return err
		}
		who, err := userContactTx(ctx, tx, w.UserID)
		if err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventWithdrawalRequested, domain.LedgerEvent{
			UserID: w.UserID.String(), Email: who.Email, Username: who.Username,
			ReferenceID: w.ID.String(), Amount: w.Amount,
		})
	})
}

func (r *PostgresRepository) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.WithdrawalRequest, error) {
	opts = opts.Normalize()
	return r.queryWithdrawals(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests w JOIN users u ON u.id = w.user_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, opts.Offset)
}

func (r *PostgresRepository) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOptions) ([]domain.WithdrawalRequest, error) {
	opts = opts.Normalize()
	return r.queryWithdrawals(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests w JOIN users u ON u.id = w.user_id
		WHERE ($1 = '' OR w.status = $1)
		ORDER BY w.created_at
		LIMIT $2 OFFSET $3
	`, string(status), opts.Limit, opts.Offset)
}

// reviewWithdrawal locks a pending withdrawal and moves it to status. A rejection refunds
// the held amount to main.
func (r *PostgresRepository) reviewWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, note string, status domain.WithdrawalStatus) (*domain.WithdrawalRequest, error) {
	var out *domain.WithdrawalRequest
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		w, err := scanWithdrawal(tx.QueryRow(ctx, `
			SELECT `+withdrawalColumns+`
			FROM withdrawal_requests w JOIN users u ON u.id = w.user_id
			WHERE w.id = $1
			FOR UPDATE OF w
		`, withdrawalID))
		if err != nil {
			return err
		}
		if w.Status != domain.WithdrawalPending {
			return ErrInvalidStatusTransition
		}

		var (
			title   string
			body    string
			routing string
		)
		switch status {
		case domain.WithdrawalCompleted:
			title = "Withdrawal sent"
			body = fmt.Sprintf("Your withdrawal of %s has been sent to %s.", domain.FormatCents(w.Amount), w.Destination)
			routing = domain.EventWithdrawalCompleted
		case domain.WithdrawalRejected:
			if _, err := lockBalancesTx(ctx, tx, w.UserID); err != nil {
				return err
			}
			if _, err := postTx(ctx, tx, posting{UserID: w.UserID, Type: domain.TxWithdrawalRefund, Bucket: domain.BucketMain,
				Amount: w.Amount, ReferenceID: refID(w.ID), Description: "Withdrawal rejected, funds returned"}); err != nil {
				return err
			}
			title = "Withdrawal rejected"
			body = fmt.Sprintf("Your withdrawal of %s was rejected and the funds were returned to your main balance.", domain.FormatCents(w.Amount))
			if note != "" {
				body += " Reason: " + note
			}
			routing = domain.EventWithdrawalRejected
		default:
			return ErrInvalidStatusTransition
		}

		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, admin_note = $3, reviewed_by = $4, reviewed_at = $5
			WHERE id = $1
		`, w.ID, string(status), note, adminID, now); err != nil {
			return err
		}
		w.Status = status
		w.AdminNote = note
		w.ReviewedBy = &adminID
		w.ReviewedAt = &now

		if err := insertNotificationTx(ctx, tx, w.UserID, domain.CategoryAccount, title, body, nil); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, w.UserID, "withdrawal_"+string(status), map[string]interface{}{
			"withdrawal_id": w.ID.String(),
			"amount":        w.Amount,
			"admin_id":      adminID.String(),
		}, ""); err != nil {
			return err
		}
		who, err := userContactTx(ctx, tx, w.UserID)
		if err != nil {
			return err
		}
		if err := enqueueEventTx(ctx, tx, r.exchange, routing, domain.LedgerEvent{
			UserID: w.UserID.String(), Email: who.Email, Username: who.Username,
			ReferenceID: w.ID.String(), Amount: w.Amount, Note: note,
		}); err != nil {
			return err
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) CompleteWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, note string) (*domain.WithdrawalRequest, error) {
	return r.reviewWithdrawal(ctx, withdrawalID, adminID, note, domain.WithdrawalCompleted)
}

func (r *PostgresRepository) RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, note string) (*domain.WithdrawalRequest, error) {
	return r.reviewWithdrawal(ctx, withdrawalID, adminID, note, domain.WithdrawalRejected)
}
