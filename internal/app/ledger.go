package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

func (s *Service) GetBalances(ctx context.Context, userID uuid.UUID) (*domain.Balances, error) {
	return s.repo.GetBalances(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error) {
	if opts.Type != "" && !opts.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, opts.Type)
	}
	items, err := s.repo.ListTransactions(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.Transaction{}
	}
	return items, err
}

func (s *Service) ListActivity(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.ActivityLog, error) {
	items, err := s.repo.ListActivity(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.ActivityLog{}
	}
	return items, err
}

func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*domain.Dashboard, error) {
	return s.repo.GetDashboard(ctx, userID)
}
