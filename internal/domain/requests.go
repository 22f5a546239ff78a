package domain

import (
	"time"

	"github.com/google/uuid"
)

// DepositStatus is the review state of a deposit request.
type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)

// WithdrawalStatus is the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// DepositRequest records funds a user reports having sent to the platform.
type DepositRequest struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Username   string        `json:"username,omitempty"`
	Amount     int64         `json:"amount"`
	Method     string        `json:"method"`
	Reference  string        `json:"reference"`
	Status     DepositStatus `json:"status"`
	AdminNote  string        `json:"admin_note,omitempty"`
	ReviewedBy *uuid.UUID    `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// WithdrawalRequest records a payout request. The amount is held from main on creation.
type WithdrawalRequest struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Username    string           `json:"username,omitempty"`
	Amount      int64            `json:"amount"`
	Method      string           `json:"method"`
	Destination string           `json:"destination"`
	Status      WithdrawalStatus `json:"status"`
	AdminNote   string           `json:"admin_note,omitempty"`
	ReviewedBy  *uuid.UUID       `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Transfer is an internal main-to-main movement between two users.
type Transfer struct {
	ID                uuid.UUID `json:"id"`
	SenderID          uuid.UUID `json:"sender_id"`
	SenderUsername    string    `json:"sender_username"`
	RecipientID       uuid.UUID `json:"recipient_id"`
	RecipientUsername string    `json:"recipient_username"`
	Amount            int64     `json:"amount"`
	Fee               int64     `json:"fee"`
	Note              string    `json:"note,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type CreateDepositRequest struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
}

type CreateWithdrawalRequest struct {
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

type TransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Note      string `json:"note"`
}

// ReviewRequest carries the admin note for approve/reject/complete actions.
type ReviewRequest struct {
	Note string `json:"note"`
}

// Referral is one user brought in by a referrer.
type Referral struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	JoinedAt     time.Time `json:"joined_at"`
	HasDeposited bool      `json:"has_deposited"`
}

// ReferralSummary is what a user sees on their referral page.
type ReferralSummary struct {
	Code            string     `json:"code"`
	ShareLink       string     `json:"share_link"`
	ReferralBalance int64      `json:"referral_balance"`
	TotalEarned     int64      `json:"total_earned"`
	Referrals       []Referral `json:"referrals"`
}

type RedeemRequest struct {
	Amount int64 `json:"amount"`
}
