package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

// Invest opens an investment in an active plan, funded from the main balance.
func (s *Service) Invest(ctx context.Context, userID uuid.UUID, req domain.InvestRequest) (*domain.Investment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, store.ErrPlanInactive
	}
	if err := plan.CheckAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	startedAt := s.now()
	inv := &domain.Investment{
		ID:              uuid.New(),
		UserID:          userID,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Amount:          req.Amount,
		DailyROIPercent: plan.DailyROIPercent,
		DurationDays:    plan.DurationDays,
		CapitalBack:     plan.CapitalBack,
		Status:          domain.InvestmentActive,
		StartedAt:       startedAt,
		EndsAt:          startedAt.AddDate(0, 0, plan.DurationDays),
		CreatedAt:       startedAt,
	}
	if err := s.repo.CreateInvestment(ctx, inv); err != nil {
		if !errors.Is(err, store.ErrInsufficientFunds) {
			s.logger.Error("failed to create investment", "user_id", userID, "plan_id", plan.ID, "error", err)
		}
		return nil, err
	}
	s.logger.Info("investment created", "user_id", userID, "investment_id", inv.ID, "plan_id", plan.ID, "amount", inv.Amount)
	return inv, nil
}

func (s *Service) ListInvestments(ctx context.Context, userID uuid.UUID, status domain.InvestmentStatus) ([]domain.Investment, error) {
	switch status {
	case "", domain.InvestmentActive, domain.InvestmentCompleted, domain.InvestmentCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown investment status %q", ErrInvalidInput, status)
	}
	items, err := s.repo.ListInvestments(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Investment{}
	}
	return items, nil
}

func (s *Service) GetInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*domain.Investment, error) {
	return s.repo.GetInvestment(ctx, userID, investmentID)
}
