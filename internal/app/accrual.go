package app

import (
	"context"
	"errors"
	"time"

	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/metrics"
	"github.com/stackvest/backend/internal/store"
)

const (
	SweepDailyGains = "daily-gains"
	SweepMaturity   = "maturity"
)

// acquireSweep takes the distributed sweep lock when one is configured. A Redis outage
// degrades to running unlocked: gain credits stay idempotent per (investment, date).
func (s *Service) acquireSweep(ctx context.Context, name string) (func(), error) {
	if s.sweepLock == nil {
		return func() {}, nil
	}
	release, ok, err := s.sweepLock.Acquire(ctx, name, s.settings.SweepLockTTL)
	if err != nil {
		s.logger.Warn("sweep lock unavailable; running without it", "sweep", name, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrSweepInProgress
	}
	return release, nil
}

// RunDailyGains credits every unpaid accrual day of every active investment, catching up
// days missed by earlier runs. Per-investment failures are logged and counted; they never
// abort the sweep.
func (s *Service) RunDailyGains(ctx context.Context) (*domain.SweepResult, error) {
	release, err := s.acquireSweep(ctx, SweepDailyGains)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	result := &domain.SweepResult{Sweep: SweepDailyGains, StartedAt: now}
	s.logger.Info("daily gain sweep started")

	investments, err := s.repo.ListActiveInvestments(ctx)
	if err != nil {
		return nil, err
	}

	for _, inv := range investments {
		if ctx.Err() != nil {
			break
		}
		result.Evaluated++
		s.accrueInvestment(ctx, inv, now, result)
	}

	s.finishSweep(result)
	return result, ctx.Err()
}

// accrueInvestment pays the pending days of one investment in date order. It stops at the
// first failure so last_gain_date never skips past an unpaid day.
func (s *Service) accrueInvestment(ctx context.Context, inv domain.Investment, now time.Time, result *domain.SweepResult) {
	gain := inv.DailyGain()
	for _, day := range inv.PendingGainDates(now) {
		credited, err := s.repo.CreditDailyGain(ctx, inv.ID, day, gain)
		switch {
		case errors.Is(err, store.ErrInvestmentNotActive):
			result.Skipped++
			return
		case err != nil:
			result.Failed++
			s.logger.Error("daily gain credit failed",
				"investment_id", inv.ID, "user_id", inv.UserID, "gain_date", day.Format("2006-01-02"), "error", err)
			return
		case credited:
			result.Credited++
			result.Amount += gain
		default:
			result.Skipped++
		}
	}
}

// RunMaturity completes every active investment past its end date. Outstanding gain days
// are paid first so a matured investment always received its full term.
func (s *Service) RunMaturity(ctx context.Context) (*domain.SweepResult, error) {
	release, err := s.acquireSweep(ctx, SweepMaturity)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.now()
	result := &domain.SweepResult{Sweep: SweepMaturity, StartedAt: now}
	s.logger.Info("maturity sweep started")

	matured, err := s.repo.ListMaturedInvestments(ctx, now)
	if err != nil {
		return nil, err
	}

	for _, inv := range matured {
		if ctx.Err() != nil {
			break
		}
		result.Evaluated++

		catchUp := &domain.SweepResult{}
		s.accrueInvestment(ctx, inv, now, catchUp)
		if catchUp.Failed > 0 {
			result.Failed++
			continue
		}

		completed, err := s.repo.MatureInvestment(ctx, inv.ID, now)
		switch {
		case errors.Is(err, store.ErrInvestmentNotActive), errors.Is(err, store.ErrInvestmentNotMatured):
			result.Skipped++
		case err != nil:
			result.Failed++
			s.logger.Error("investment maturity failed", "investment_id", inv.ID, "user_id", inv.UserID, "error", err)
		default:
			result.Credited++
			if completed.CapitalBack {
				result.Amount += completed.Amount
			}
			s.logger.Info("investment matured", "investment_id", inv.ID, "user_id", inv.UserID,
				"capital_back", completed.CapitalBack, "gain_days_caught_up", catchUp.Credited)
		}
	}

	s.finishSweep(result)
	return result, ctx.Err()
}

func (s *Service) finishSweep(result *domain.SweepResult) {
	elapsed := s.now().Sub(result.StartedAt)
	metrics.RecordSweep(result.Sweep, result.Credited, result.Skipped, result.Failed, result.Amount, elapsed)
	s.logger.Info("sweep finished",
		"sweep", result.Sweep,
		"evaluated", result.Evaluated,
		"credited", result.Credited,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"amount", result.Amount,
		"duration_ms", elapsed.Milliseconds(),
	)
}
