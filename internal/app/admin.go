package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

func (s *Service) ListUsers(ctx context.Context, search string, opts domain.ListOptions) ([]domain.User, error) {
	items, err := s.repo.ListUsers(ctx, search, opts)
	if items == nil && err == nil {
		items = []domain.User{}
	}
	return items, err
}

func (s *Service) GetUserDetail(ctx context.Context, userID uuid.UUID) (*domain.UserDetail, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	balances, err := s.repo.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserDetail{User: *user, Balances: *balances}, nil
}

func (s *Service) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, status domain.UserStatus) error {
	switch status {
	case domain.UserStatusActive, domain.UserStatusSuspended:
	default:
		return fmt.Errorf("%w: status must be active or suspended", ErrInvalidInput)
	}
	if adminID == userID && status == domain.UserStatusSuspended {
		return fmt.Errorf("%w: administrators cannot suspend themselves", ErrInvalidInput)
	}
	if err := s.repo.SetUserStatus(ctx, userID, status); err != nil {
		return err
	}
	if err := s.repo.RecordActivity(ctx, domain.ActivityLog{
		UserID:   userID,
		Action:   "status_" + string(status),
		Metadata: map[string]interface{}{"admin_id": adminID.String()},
	}); err != nil {
		s.logger.Warn("failed to record status change", "user_id", userID, "error", err)
	}
	s.logger.Info("user status changed", "user_id", userID, "status", status, "admin_id", adminID)
	return nil
}

func (s *Service) AdjustBalance(ctx context.Context, adminID, userID uuid.UUID, adj domain.BalanceAdjustment) (*domain.Balances, error) {
	adj.Reason = strings.TrimSpace(adj.Reason)
	switch {
	case !adj.Bucket.Valid():
		return nil, fmt.Errorf("%w: unknown bucket %q", ErrInvalidInput, adj.Bucket)
	case adj.Amount == 0:
		return nil, fmt.Errorf("%w: amount must be non-zero", ErrInvalidInput)
	case adj.Reason == "":
		return nil, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	balances, err := s.repo.AdjustBalance(ctx, userID, adminID, adj)
	if err != nil {
		return nil, err
	}
	s.logger.Info("balance adjusted", "user_id", userID, "admin_id", adminID, "bucket", adj.Bucket, "amount", adj.Amount)
	return balances, nil
}

// FixBalances reconciles every user's investment bucket against their active investments.
// Users are repaired one transaction at a time; a failure on one user is logged and the run
// continues.
func (s *Service) FixBalances(ctx context.Context) (*domain.ReconcileReport, error) {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &domain.ReconcileReport{}
	var failures int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++
		repair, err := s.repo.ReconcileInvestmentBucket(ctx, userID)
		if err != nil {
			failures++
			s.logger.Error("balance reconcile failed", "user_id", userID, "error", err)
			continue
		}
		if repair == nil {
			continue
		}
		drift := repair.Expected - repair.Recorded
		if drift < 0 {
			drift = -drift
		}
		report.Repaired++
		report.DriftTotal += drift
		report.Repairs = append(report.Repairs, *repair)
		s.logger.Warn("investment balance repaired", "user_id", userID, "recorded", repair.Recorded, "expected", repair.Expected)
	}

	s.logger.Info("balance reconcile finished", "checked", report.Checked, "repaired", report.Repaired,
		"drift_total", report.DriftTotal, "failed", failures)
	if failures > 0 {
		return report, errors.New("some balances could not be reconciled; see logs")
	}
	return report, nil
}

func (s *Service) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	return s.repo.GetPlatformStats(ctx, s.now())
}
