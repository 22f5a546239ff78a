package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

const maxReferenceLength = 256

func (s *Service) CreateDeposit(ctx context.Context, userID uuid.UUID, req domain.CreateDepositRequest) (*domain.DepositRequest, error) {
	method := strings.TrimSpace(req.Method)
	reference := strings.TrimSpace(req.Reference)
	switch {
	case req.Amount < s.settings.MinDeposit:
		return nil, fmt.Errorf("%w: minimum deposit is %s", ErrInvalidInput, domain.FormatCents(s.settings.MinDeposit))
	case method == "":
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	case len(reference) > maxReferenceLength:
		return nil, fmt.Errorf("%w: reference is too long", ErrInvalidInput)
	}

	deposit := &domain.DepositRequest{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    req.Amount,
		Method:    method,
		Reference: reference,
		Status:    domain.DepositPending,
	}
	if err := s.repo.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}
	s.logger.Info("deposit requested", "user_id", userID, "deposit_id", deposit.ID, "amount", deposit.Amount)
	return deposit, nil
}

func (s *Service) ListMyDeposits(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.DepositRequest, error) {
	items, err := s.repo.ListDepositsByUser(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.DepositRequest{}
	}
	return items, err
}

func (s *Service) ListDeposits(ctx context.Context, status domain.DepositStatus, opts domain.ListOptions) ([]domain.DepositRequest, error) {
	switch status {
	case "", domain.DepositPending, domain.DepositApproved, domain.DepositRejected:
	default:
		return nil, fmt.Errorf("%w: unknown deposit status %q", ErrInvalidInput, status)
	}
	items, err := s.repo.ListDeposits(ctx, status, opts)
	if items == nil && err == nil {
		items = []domain.DepositRequest{}
	}
	return items, err
}

// ApproveDeposit credits a pending deposit. The repository pays the referral bonus when it
// is the user's first approved deposit.
func (s *Service) ApproveDeposit(ctx context.Context, adminID, depositID uuid.UUID, note string) (*domain.DepositRequest, error) {
	deposit, err := s.repo.ApproveDeposit(ctx, depositID, adminID, strings.TrimSpace(note), s.settings.ReferralBonusPercent)
	if err != nil {
		return nil, err
	}
	s.logger.Info("deposit approved", "deposit_id", deposit.ID, "user_id", deposit.UserID, "admin_id", adminID, "amount", deposit.Amount)
	return deposit, nil
}

func (s *Service) RejectDeposit(ctx context.Context, adminID, depositID uuid.UUID, note string) (*domain.DepositRequest, error) {
	deposit, err := s.repo.RejectDeposit(ctx, depositID, adminID, strings.TrimSpace(note))
	if err != nil {
		return nil, err
	}
	s.logger.Info("deposit rejected", "deposit_id", deposit.ID, "user_id", deposit.UserID, "admin_id", adminID)
	return deposit, nil
}
