package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

func TestRedeemReferral(t *testing.T) {
	userID := uuid.New()
	repo := &stubRepo{
		redeemReferralFn: func(_ context.Context, id uuid.UUID, amount int64) (*domain.Balances, error) {
			if amount > 5000 {
				return nil, store.ErrInsufficientFunds
			}
			return &domain.Balances{UserID: id, Main: amount, Referral: 5000 - amount}, nil
		},
	}
	svc := newTestService(repo)

	tests := []struct {
		name    string
		amount  int64
		wantErr error
	}{
		{"zero", 0, ErrInvalidInput},
		{"negative", -100, ErrInvalidInput},
		{"more than referral balance", 5001, store.ErrInsufficientFunds},
		{"partial", 2000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := svc.RedeemReferral(context.Background(), userID, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if balances.Main != 2000 || balances.Referral != 3000 {
				t.Fatalf("unexpected balances: %+v", balances)
			}
		})
	}
}

func TestShareLink(t *testing.T) {
	svc := newTestService(&stubRepo{})
	if got := svc.ShareLink("AB12CD"); got != "https://stackvest.test/register?ref=AB12CD" {
		t.Fatalf("unexpected share link %q", got)
	}
}
