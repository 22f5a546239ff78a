package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

const maxTransferNoteLength = 140

// TransferFee is the fee charged on top of amount.
func (s *Service) TransferFee(amount int64) int64 {
	return domain.PercentOf(amount, s.settings.TransferFeePercent)
}

// Transfer moves funds between two users' main balances. The recipient is addressed by
// username or email.
func (s *Service) Transfer(ctx context.Context, senderID uuid.UUID, req domain.TransferRequest) (*domain.Transfer, error) {
	note := strings.TrimSpace(req.Note)
	switch {
	case strings.TrimSpace(req.Recipient) == "":
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	case req.Amount < s.settings.MinTransfer:
		return nil, fmt.Errorf("%w: minimum transfer is %s", ErrInvalidInput, domain.FormatCents(s.settings.MinTransfer))
	case len(note) > maxTransferNoteLength:
		return nil, fmt.Errorf("%w: note must be at most %d characters", ErrInvalidInput, maxTransferNoteLength)
	}

	recipient, err := s.repo.FindUserByHandle(ctx, req.Recipient)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	if recipient.ID == senderID {
		return nil, ErrSelfTransfer
	}
	if recipient.Status != domain.UserStatusActive {
		return nil, ErrRecipientSuspended
	}

	transfer := &domain.Transfer{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipient.ID,
		Amount:      req.Amount,
		Fee:         s.TransferFee(req.Amount),
		Note:        note,
	}
	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		return nil, err
	}
	s.logger.Info("transfer completed", "transfer_id", transfer.ID, "sender_id", senderID,
		"recipient_id", recipient.ID, "amount", transfer.Amount, "fee", transfer.Fee)
	return transfer, nil
}

func (s *Service) ListTransfers(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.Transfer, error) {
	items, err := s.repo.ListTransfers(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.Transfer{}
	}
	return items, err
}
