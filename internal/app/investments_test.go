package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

func TestInvest(t *testing.T) {
	capped := &domain.InvestmentPlan{
		ID: uuid.New(), Name: "Starter", MinAmount: 10000, MaxAmount: 100000,
		DurationDays: 14, DailyROIPercent: decimal.RequireFromString("1.5"), CapitalBack: true, Active: true,
	}
	uncapped := &domain.InvestmentPlan{
		ID: uuid.New(), Name: "Premium", MinAmount: 10000,
		DurationDays: 60, DailyROIPercent: decimal.RequireFromString("2.5"), Active: true,
	}
	retired := &domain.InvestmentPlan{
		ID: uuid.New(), Name: "Legacy", MinAmount: 100,
		DurationDays: 7, DailyROIPercent: decimal.RequireFromString("1"), Active: false,
	}
	plans := map[uuid.UUID]*domain.InvestmentPlan{capped.ID: capped, uncapped.ID: uncapped, retired.ID: retired}

	var created []*domain.Investment
	repo := &stubRepo{
		getPlanFn: func(_ context.Context, id uuid.UUID) (*domain.InvestmentPlan, error) {
			if p, ok := plans[id]; ok {
				return p, nil
			}
			return nil, store.ErrPlanNotFound
		},
		createInvestmentFn: func(_ context.Context, inv *domain.Investment) error {
			if inv.Amount == 77777 {
				return store.ErrInsufficientFunds
			}
			created = append(created, inv)
			return nil
		},
	}
	svc := newTestService(repo)
	userID := uuid.New()

	tests := []struct {
		name    string
		req     domain.InvestRequest
		wantErr error
	}{
		{"zero amount", domain.InvestRequest{PlanID: capped.ID, Amount: 0}, ErrInvalidInput},
		{"below plan minimum", domain.InvestRequest{PlanID: capped.ID, Amount: 9999}, ErrInvalidInput},
		{"above plan maximum", domain.InvestRequest{PlanID: capped.ID, Amount: 100001}, ErrInvalidInput},
		{"unknown plan", domain.InvestRequest{PlanID: uuid.New(), Amount: 50000}, store.ErrPlanNotFound},
		{"inactive plan", domain.InvestRequest{PlanID: retired.ID, Amount: 50000}, store.ErrPlanInactive},
		{"insufficient funds", domain.InvestRequest{PlanID: capped.ID, Amount: 77777}, store.ErrInsufficientFunds},
		{"at maximum", domain.InvestRequest{PlanID: capped.ID, Amount: 100000}, nil},
		{"uncapped plan", domain.InvestRequest{PlanID: uncapped.ID, Amount: 1 << 40}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invest(context.Background(), userID, tt.req)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if len(created) != 2 {
		t.Fatalf("expected 2 investments stored, got %d", len(created))
	}
	inv := created[0]
	if inv.UserID != userID || inv.Status != domain.InvestmentActive || !inv.StartedAt.Equal(testNow) {
		t.Fatalf("unexpected investment: %+v", inv)
	}
	if !inv.EndsAt.Equal(testNow.AddDate(0, 0, 14)) {
		t.Fatalf("expected ends_at 14 days out, got %v", inv.EndsAt)
	}
	if !inv.DailyROIPercent.Equal(capped.DailyROIPercent) || !inv.CapitalBack || inv.PlanName != "Starter" {
		t.Fatalf("plan terms not snapshotted: %+v", inv)
	}
}

func TestListInvestmentsRejectsUnknownStatus(t *testing.T) {
	var calls int
	repo := &stubRepo{
		listInvestmentsFn: func(context.Context, uuid.UUID, domain.InvestmentStatus) ([]domain.Investment, error) {
			calls++
			return nil, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.ListInvestments(context.Background(), uuid.New(), "paused"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("repository should not be queried for an unknown status")
	}

	items, err := svc.ListInvestments(context.Background(), uuid.New(), domain.InvestmentCompleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil || len(items) != 0 || calls != 1 {
		t.Fatalf("expected empty non-nil list from one query, got %v after %d calls", items, calls)
	}
}
