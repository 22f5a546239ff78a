package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

func TestTransferFeeRounding(t *testing.T) {
	svc := newTestService(&stubRepo{})
	tests := []struct {
		amount int64
		want   int64
	}{
		{10000, 150},
		{100, 2},
		{33, 0},
		{34, 1},
	}
	for _, tt := range tests {
		if got := svc.TransferFee(tt.amount); got != tt.want {
			t.Fatalf("TransferFee(%d) = %d, want %d", tt.amount, got, tt.want)
		}
	}
}

func TestTransfer(t *testing.T) {
	sender := uuid.New()
	recipient := &domain.User{ID: uuid.New(), Username: "bob", Status: domain.UserStatusActive}
	frozen := &domain.User{ID: uuid.New(), Username: "carol", Status: domain.UserStatusSuspended}
	self := &domain.User{ID: sender, Username: "ada", Status: domain.UserStatusActive}

	var stored *domain.Transfer
	repo := &stubRepo{
		findByHandleFn: func(_ context.Context, handle string) (*domain.User, error) {
			switch handle {
			case "bob":
				return recipient, nil
			case "carol":
				return frozen, nil
			case "ada":
				return self, nil
			}
			return nil, store.ErrUserNotFound
		},
		createTransferFn: func(_ context.Context, transfer *domain.Transfer) error {
			if transfer.Amount == 999999 {
				return store.ErrInsufficientFunds
			}
			stored = transfer
			return nil
		},
	}
	svc := newTestService(repo)

	tests := []struct {
		name    string
		req     domain.TransferRequest
		wantErr error
	}{
		{"below minimum", domain.TransferRequest{Recipient: "bob", Amount: 50}, ErrInvalidInput},
		{"missing recipient", domain.TransferRequest{Amount: 500}, ErrInvalidInput},
		{"unknown recipient", domain.TransferRequest{Recipient: "eve", Amount: 500}, ErrRecipientNotFound},
		{"self transfer", domain.TransferRequest{Recipient: "ada", Amount: 500}, ErrSelfTransfer},
		{"suspended recipient", domain.TransferRequest{Recipient: "carol", Amount: 500}, ErrRecipientSuspended},
		{"insufficient funds", domain.TransferRequest{Recipient: "bob", Amount: 999999}, store.ErrInsufficientFunds},
		{"success", domain.TransferRequest{Recipient: "bob", Amount: 10000, Note: " rent "}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(context.Background(), sender, tt.req)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if stored == nil {
		t.Fatal("expected transfer to be stored")
	}
	if stored.Fee != 150 || stored.Note != "rent" || stored.RecipientID != recipient.ID || stored.SenderID != sender {
		t.Fatalf("unexpected stored transfer: %+v", stored)
	}
}
