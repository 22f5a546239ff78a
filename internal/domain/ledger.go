package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger line.
type TransactionType string

const (
	TxDeposit          TransactionType = "deposit"
	TxWithdrawal       TransactionType = "withdrawal"
	TxWithdrawalRefund TransactionType = "withdrawal_refund"
	TxInvestment       TransactionType = "investment"
	TxDailyGain        TransactionType = "daily_gain"
	TxCapitalReturn    TransactionType = "capital_return"
	TxReferralBonus    TransactionType = "referral_bonus"
	TxReferralRedeem   TransactionType = "referral_redeem"
	TxTransferIn       TransactionType = "transfer_in"
	TxTransferOut      TransactionType = "transfer_out"
	TxTransferFee      TransactionType = "transfer_fee"
	TxAdminAdjustment  TransactionType = "admin_adjustment"
)

var transactionTypes = map[TransactionType]struct{}{
	TxDeposit: {}, TxWithdrawal: {}, TxWithdrawalRefund: {}, TxInvestment: {},
	TxDailyGain: {}, TxCapitalReturn: {}, TxReferralBonus: {}, TxReferralRedeem: {},
	TxTransferIn: {}, TxTransferOut: {}, TxTransferFee: {}, TxAdminAdjustment: {},
}

// Valid reports whether t is a known ledger type.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// Transaction is one immutable ledger line. Amount is signed; BalanceAfter is the bucket
// balance after the line was applied.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Type         TransactionType `json:"type"`
	Bucket       Bucket          `json:"bucket"`
	Amount       int64           `json:"amount"`
	BalanceAfter int64           `json:"balance_after"`
	ReferenceID  *uuid.UUID      `json:"reference_id,omitempty"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TransactionListOptions filters a user's ledger listing.
type TransactionListOptions struct {
	Type   TransactionType
	Limit  int
	Offset int
}

// Dashboard aggregates the figures shown on a user's home screen.
type Dashboard struct {
	Balances            Balances `json:"balances"`
	ActiveInvestments   int      `json:"active_investments"`
	ActivePrincipal     int64    `json:"active_principal"`
	TotalEarned         int64    `json:"total_earned"`
	PendingDeposits     int64    `json:"pending_deposits"`
	PendingWithdrawals  int64    `json:"pending_withdrawals"`
	UnreadNotifications int      `json:"unread_notifications"`
}

// PlatformStats is the admin overview.
type PlatformStats struct {
	Users              int   `json:"users"`
	SuspendedUsers     int   `json:"suspended_users"`
	MainTotal          int64 `json:"main_total"`
	InvestmentTotal    int64 `json:"investment_total"`
	ReferralTotal      int64 `json:"referral_total"`
	PendingDeposits    int   `json:"pending_deposits"`
	PendingWithdrawals int   `json:"pending_withdrawals"`
	ActiveInvestments  int   `json:"active_investments"`
	ActivePrincipal    int64 `json:"active_principal"`
	GainsPaidToday     int64 `json:"gains_paid_today"`
	OpenTickets        int   `json:"open_tickets"`
}

// BalanceAdjustment is an admin correction to one bucket.
type BalanceAdjustment struct {
	Bucket Bucket `json:"bucket"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// BalanceRepair reports the drift found for one user by a reconcile run.
type BalanceRepair struct {
	UserID   uuid.UUID `json:"user_id"`
	Recorded int64     `json:"recorded"`
	Expected int64     `json:"expected"`
}

// ReconcileReport summarises a FixBalances run.
type ReconcileReport struct {
	Checked    int             `json:"checked"`
	Repaired   int             `json:"repaired"`
	DriftTotal int64           `json:"drift_total"`
	Repairs    []BalanceRepair `json:"repairs,omitempty"`
}
