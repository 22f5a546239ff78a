package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

// RequestWithdrawal holds the amount from main until an admin completes or rejects it.
func (s *Service) RequestWithdrawal(ctx context.Context, userID uuid.UUID, req domain.CreateWithdrawalRequest) (*domain.WithdrawalRequest, error) {
	method := strings.TrimSpace(req.Method)
	destination := strings.TrimSpace(req.Destination)
	switch {
	case req.Amount < s.settings.MinWithdrawal:
		return nil, fmt.Errorf("%w: minimum withdrawal is %s", ErrInvalidInput, domain.FormatCents(s.settings.MinWithdrawal))
	case method == "":
		return nil, fmt.Errorf("%w: payout method is required", ErrInvalidInput)
	case destination == "":
		return nil, fmt.Errorf("%w: destination is required", ErrInvalidInput)
	case len(destination) > maxReferenceLength:
		return nil, fmt.Errorf("%w: destination is too long", ErrInvalidInput)
	}

	w := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      req.Amount,
		Method:      method,
		Destination: destination,
		Status:      domain.WithdrawalPending,
	}
	if err := s.repo.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal requested", "user_id", userID, "withdrawal_id", w.ID, "amount", w.Amount)
	return w, nil
}

func (s *Service) ListMyWithdrawals(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.WithdrawalRequest, error) {
	items, err := s.repo.ListWithdrawalsByUser(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.WithdrawalRequest{}
	}
	return items, err
}

func (s *Service) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOptions) ([]domain.WithdrawalRequest, error) {
	switch status {
	case "", domain.WithdrawalPending, domain.WithdrawalCompleted, domain.WithdrawalRejected:
	default:
		return nil, fmt.Errorf("%w: unknown withdrawal status %q", ErrInvalidInput, status)
	}
	items, err := s.repo.ListWithdrawals(ctx, status, opts)
	if items == nil && err == nil {
		items = []domain.WithdrawalRequest{}
	}
	return items, err
}

func (s *Service) CompleteWithdrawal(ctx context.Context, adminID, withdrawalID uuid.UUID, note string) (*domain.WithdrawalRequest, error) {
	w, err := s.repo.CompleteWithdrawal(ctx, withdrawalID, adminID, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal completed", "withdrawal_id", w.ID, "user_id", w.UserID, "admin_id", adminID, "amount", w.Amount)
	return w, nil
}

// RejectWithdrawal returns the held amount to main.
func (s *Service) RejectWithdrawal(ctx context.Context, adminID, withdrawalID uuid.UUID, note string) (*domain.WithdrawalRequest, error) {
	w, err := s.repo.RejectWithdrawal(ctx, withdrawalID, adminID, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	s.logger.Info("withdrawal rejected", "withdrawal_id", w.ID, "user_id", w.UserID, "admin_id", adminID, "amount", w.Amount)
	return w, nil
}
