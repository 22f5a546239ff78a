package app

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

// ShareLink is the registration URL carrying code.
func (s *Service) ShareLink(code string) string {
	return s.settings.PublicBaseURL + "/register?ref=" + url.QueryEscape(code)
}

func (s *Service) ReferralSummary(ctx context.Context, userID uuid.UUID) (*domain.ReferralSummary, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	balances, err := s.repo.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	referrals, err := s.repo.ListReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.repo.SumTransactions(ctx, userID, domain.TxReferralBonus)
	if err != nil {
		return nil, err
	}
	if referrals == nil {
		referrals = []domain.Referral{}
	}
	return &domain.ReferralSummary{
		Code:            user.ReferralCode,
		ShareLink:       s.ShareLink(user.ReferralCode),
		ReferralBalance: balances.Referral,
		TotalEarned:     earned,
		Referrals:       referrals,
	}, nil
}

// RedeemReferral moves amount from the referral balance into main.
func (s *Service) RedeemReferral(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Balances, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	balances, err := s.repo.RedeemReferral(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	s.logger.Info("referral balance redeemed", "user_id", userID, "amount", amount)
	return balances, nil
}
