package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stackvest/backend/internal/domain"
)

// lockPairTx locks two balance rows in a stable id order so concurrent transfers in
// opposite directions cannot deadlock.
func lockPairTx(ctx context.Context, tx pgx.Tx, a, b uuid.UUID) (map[uuid.UUID]*domain.Balances, error) {
	first, second := a, b
	if bytes.Compare(b[:], a[:]) < 0 {
		first, second = b, a
	}
	locked := make(map[uuid.UUID]*domain.Balances, 2)
	for _, id := range []uuid.UUID{first, second} {
		balances, err := lockBalancesTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = balances
	}
	return locked, nil
}

// CreateTransfer moves Amount from the sender's main balance to the recipient's and debits
// Fee from the sender on top.
func (r *PostgresRepository) CreateTransfer(ctx context.Context, t *domain.Transfer) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		locked, err := lockPairTx(ctx, tx, t.SenderID, t.RecipientID)
		if err != nil {
			return err
		}
		if locked[t.SenderID].Main < t.Amount+t.Fee {
			return ErrInsufficientFunds
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO transfers (id, sender_id, recipient_id, amount, fee, note)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, t.ID, t.SenderID, t.RecipientID, t.Amount, t.Fee, t.Note).Scan(&t.CreatedAt)
		if err != nil {
			return err
		}

		sender, err := userContactTx(ctx, tx, t.SenderID)
		if err != nil {
			return err
		}
		recipient, err := userContactTx(ctx, tx, t.RecipientID)
		if err != nil {
			return err
		}
		t.SenderUsername = sender.Username
		t.RecipientUsername = recipient.Username

		postings := []posting{
			{UserID: t.SenderID, Type: domain.TxTransferOut, Bucket: domain.BucketMain, Amount: -t.Amount,
				ReferenceID: refID(t.ID), Description: "Transfer to " + recipient.Username},
			{UserID: t.RecipientID, Type: domain.TxTransferIn, Bucket: domain.BucketMain, Amount: t.Amount,
				ReferenceID: refID(t.ID), Description: "Transfer from " + sender.Username},
		}
		if t.Fee > 0 {
			postings = append(postings, posting{UserID: t.SenderID, Type: domain.TxTransferFee, Bucket: domain.BucketMain,
				Amount: -t.Fee, ReferenceID: refID(t.ID), Description: "Transfer fee"})
		}
		for _, p := range postings {
			if _, err := postTx(ctx, tx, p); err != nil {
				return err
			}
		}

		if err := insertNotificationTx(ctx, tx, t.RecipientID, domain.CategoryAccount, "Transfer received",
			fmt.Sprintf("%s sent you %s.", sender.Username, domain.FormatCents(t.Amount)), nil); err != nil {
			return err
		}
		if err := insertActivityTx(ctx, tx, t.SenderID, "transfer_sent", map[string]interface{}{
			"transfer_id": t.ID.String(),
			"recipient":   recipient.Username,
			"amount":      t.Amount,
			"fee":         t.Fee,
		}, ""); err != nil {
			return err
		}
		return enqueueEventTx(ctx, tx, r.exchange, domain.EventTransferCompleted, domain.TransferCompletedEvent{
			TransferID:        t.ID.String(),
			SenderEmail:       sender.Email,
			SenderUsername:    sender.Username,
			RecipientEmail:    recipient.Email,
			RecipientUsername: recipient.Username,
			Amount:            t.Amount,
			Fee:               t.Fee,
			Note:              t.Note,
		})
	})
}

func (r *PostgresRepository) ListTransfers(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.Transfer, error) {
	opts = opts.Normalize()
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.sender_id, s.username, t.recipient_id, rc.username, t.amount, t.fee, t.note, t.created_at
		FROM transfers t
		JOIN users s ON s.id = t.sender_id
		JOIN users rc ON rc.id = t.recipient_id
		WHERE t.sender_id = $1 OR t.recipient_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Transfer, 0, opts.Limit)
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.SenderID, &t.SenderUsername, &t.RecipientID, &t.RecipientUsername,
			&t.Amount, &t.Fee, &t.Note, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
