package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

func (s *Service) ListPlans(ctx context.Context, includeInactive bool) ([]domain.InvestmentPlan, error) {
	plans, err := s.repo.ListPlans(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	if plans == nil {
		plans = []domain.InvestmentPlan{}
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	return s.repo.GetPlan(ctx, planID)
}

func planFromInput(in domain.PlanInput) domain.InvestmentPlan {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return domain.InvestmentPlan{
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		MinAmount:       in.MinAmount,
		MaxAmount:       in.MaxAmount,
		DurationDays:    in.DurationDays,
		DailyROIPercent: in.DailyROIPercent,
		CapitalBack:     in.CapitalBack,
		Active:          active,
		SortOrder:       in.SortOrder,
	}
}

func (s *Service) CreatePlan(ctx context.Context, in domain.PlanInput) (*domain.InvestmentPlan, error) {
	plan := planFromInput(in)
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	plan.ID = uuid.New()
	if err := s.repo.CreatePlan(ctx, &plan); err != nil {
		return nil, err
	}
	s.logger.Info("plan created", "plan_id", plan.ID, "name", plan.Name)
	return &plan, nil
}

func (s *Service) UpdatePlan(ctx context.Context, planID uuid.UUID, in domain.PlanInput) (*domain.InvestmentPlan, error) {
	existing, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	plan := planFromInput(in)
	if in.Active == nil {
		plan.Active = existing.Active
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	plan.ID = planID
	if err := s.repo.UpdatePlan(ctx, &plan); err != nil {
		return nil, err
	}
	s.logger.Info("plan updated", "plan_id", plan.ID)
	return &plan, nil
}

func (s *Service) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	if err := s.repo.SetPlanActive(ctx, planID, active); err != nil {
		return err
	}
	s.logger.Info("plan availability changed", "plan_id", planID, "active", active)
	return nil
}

// SeedPlans creates every plan in defaults that does not exist yet, matched by name.
func (s *Service) SeedPlans(ctx context.Context, defaults []domain.PlanInput) (int, error) {
	existing, err := s.repo.ListPlans(ctx, false)
	if err != nil {
		return 0, err
	}
	names := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		names[strings.ToLower(p.Name)] = struct{}{}
	}

	created := 0
	for _, in := range defaults {
		if _, ok := names[strings.ToLower(strings.TrimSpace(in.Name))]; ok {
			continue
		}
		if _, err := s.CreatePlan(ctx, in); err != nil {
			return created, fmt.Errorf("seed plan %q: %w", in.Name, err)
		}
		created++
	}
	return created, nil
}
