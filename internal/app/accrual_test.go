package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

func activeInvestment(startedDaysAgo, durationDays int) domain.Investment {
	started := testNow.AddDate(0, 0, -startedDaysAgo)
	return domain.Investment{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		PlanName:        "Starter",
		Amount:          100000,
		DailyROIPercent: decimal.RequireFromString("1.5"),
		DurationDays:    durationDays,
		CapitalBack:     true,
		Status:          domain.InvestmentActive,
		StartedAt:       started,
		EndsAt:          started.AddDate(0, 0, durationDays),
	}
}

func TestRunDailyGainsCatchesUpMissedDays(t *testing.T) {
	inv := activeInvestment(3, 30)
	var credited []time.Time
	repo := &stubRepo{
		activeInvestmentsFn: func(context.Context) ([]domain.Investment, error) {
			return []domain.Investment{inv}, nil
		},
		creditFn: func(_ context.Context, id uuid.UUID, day time.Time, amount int64) (bool, error) {
			if id != inv.ID {
				t.Fatalf("unexpected investment id %s", id)
			}
			if amount != 1500 {
				t.Fatalf("expected daily gain 1500, got %d", amount)
			}
			credited = append(credited, day)
			return true, nil
		},
	}

	result, err := newTestService(repo).RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(credited) != 3 {
		t.Fatalf("expected 3 credited days, got %d", len(credited))
	}
	for i := 1; i < len(credited); i++ {
		if !credited[i].After(credited[i-1]) {
			t.Fatalf("expected ascending gain dates, got %v", credited)
		}
	}
	if result.Credited != 3 || result.Amount != 4500 || result.Evaluated != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
}

func TestRunDailyGainsSkipsAlreadyCreditedDays(t *testing.T) {
	inv := activeInvestment(2, 30)
	repo := &stubRepo{
		activeInvestmentsFn: func(context.Context) ([]domain.Investment, error) {
			return []domain.Investment{inv}, nil
		},
		creditFn: func(context.Context, uuid.UUID, time.Time, int64) (bool, error) {
			return false, nil
		},
	}

	result, err := newTestService(repo).RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Credited != 0 || result.Skipped != 2 || result.Amount != 0 {
		t.Fatalf("expected two skipped days and no credit, got %+v", result)
	}
}

func TestRunDailyGainsStopsInvestmentAtFirstFailure(t *testing.T) {
	failing := activeInvestment(3, 30)
	healthy := activeInvestment(1, 30)
	calls := map[uuid.UUID]int{}
	repo := &stubRepo{
		activeInvestmentsFn: func(context.Context) ([]domain.Investment, error) {
			return []domain.Investment{failing, healthy}, nil
		},
		creditFn: func(_ context.Context, id uuid.UUID, _ time.Time, _ int64) (bool, error) {
			calls[id]++
			if id == failing.ID {
				return false, errors.New("connection reset")
			}
			return true, nil
		},
	}

	result, err := newTestService(repo).RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("sweep should not fail because of one investment: %v", err)
	}
	if calls[failing.ID] != 1 {
		t.Fatalf("expected accrual to stop after first failure, got %d calls", calls[failing.ID])
	}
	if calls[healthy.ID] != 1 {
		t.Fatalf("expected healthy investment to be credited once, got %d", calls[healthy.ID])
	}
	if result.Failed != 1 || result.Credited != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
}

func TestRunDailyGainsStopsWhenInvestmentNoLongerActive(t *testing.T) {
	inv := activeInvestment(3, 30)
	calls := 0
	repo := &stubRepo{
		activeInvestmentsFn: func(context.Context) ([]domain.Investment, error) {
			return []domain.Investment{inv}, nil
		},
		creditFn: func(context.Context, uuid.UUID, time.Time, int64) (bool, error) {
			calls++
			return false, store.ErrInvestmentNotActive
		},
	}

	result, err := newTestService(repo).RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("expected one skipped attempt, calls=%d result=%+v", calls, result)
	}
}

func TestRunMaturityPaysPendingGainsBeforeCompleting(t *testing.T) {
	inv := activeInvestment(10, 7)
	last := domain.TruncateDay(inv.StartedAt).AddDate(0, 0, 5)
	inv.LastGainDate = &last

	var order []string
	repo := &stubRepo{
		maturedFn: func(context.Context, time.Time) ([]domain.Investment, error) {
			return []domain.Investment{inv}, nil
		},
		creditFn: func(_ context.Context, _ uuid.UUID, day time.Time, _ int64) (bool, error) {
			order = append(order, "credit:"+day.Format("2006-01-02"))
			return true, nil
		},
		matureFn: func(_ context.Context, id uuid.UUID, _ time.Time) (*domain.Investment, error) {
			order = append(order, "mature")
			completed := inv
			completed.Status = domain.InvestmentCompleted
			return &completed, nil
		},
	}

	result, err := newTestService(repo).RunMaturity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDays := []string{
		domain.TruncateDay(inv.StartedAt).AddDate(0, 0, 6).Format("2006-01-02"),
		domain.TruncateDay(inv.StartedAt).AddDate(0, 0, 7).Format("2006-01-02"),
	}
	if len(order) != 3 || order[0] != "credit:"+wantDays[0] || order[1] != "credit:"+wantDays[1] || order[2] != "mature" {
		t.Fatalf("unexpected call order: %v", order)
	}
	if result.Credited != 1 || result.Amount != inv.Amount {
		t.Fatalf("unexpected maturity result: %+v", result)
	}
}

func TestRunMaturityLeavesInvestmentActiveWhenCatchUpFails(t *testing.T) {
	inv := activeInvestment(10, 7)
	matured := false
	repo := &stubRepo{
		maturedFn: func(context.Context, time.Time) ([]domain.Investment, error) {
			return []domain.Investment{inv}, nil
		},
		creditFn: func(context.Context, uuid.UUID, time.Time, int64) (bool, error) {
			return false, errors.New("deadlock detected")
		},
		matureFn: func(context.Context, uuid.UUID, time.Time) (*domain.Investment, error) {
			matured = true
			return nil, nil
		},
	}

	result, err := newTestService(repo).RunMaturity(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matured {
		t.Fatal("investment must not mature while gain days are unpaid")
	}
	if result.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", result)
	}
}

type stubLocker struct {
	ok       bool
	err      error
	released bool
}

func (l *stubLocker) Acquire(context.Context, string, time.Duration) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, l.ok, l.err
	}
	return func() { l.released = true }, true, nil
}

func TestSweepLockHeldReturnsInProgress(t *testing.T) {
	svc := newTestService(&stubRepo{})
	svc.SetSweepLocker(&stubLocker{ok: false})

	if _, err := svc.RunDailyGains(context.Background()); !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
}

func TestSweepRunsUnlockedWhenLockBackendFails(t *testing.T) {
	repo := &stubRepo{
		activeInvestmentsFn: func(context.Context) ([]domain.Investment, error) { return nil, nil },
	}
	svc := newTestService(repo)
	svc.SetSweepLocker(&stubLocker{err: errors.New("redis unavailable")})

	result, err := svc.RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("expected sweep to run without lock, got %v", err)
	}
	if result.Evaluated != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSweepReleasesLock(t *testing.T) {
	repo := &stubRepo{
		maturedFn: func(context.Context, time.Time) ([]domain.Investment, error) { return nil, nil },
	}
	locker := &stubLocker{ok: true}
	svc := newTestService(repo)
	svc.SetSweepLocker(locker)

	if _, err := svc.RunMaturity(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !locker.released {
		t.Fatal("expected sweep lock to be released")
	}
}
