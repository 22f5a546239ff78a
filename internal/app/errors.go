package app

import "errors"

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrInvalidReferralCode = errors.New("referral code not recognised")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrSelfTransfer        = errors.New("cannot transfer to yourself")
	ErrRecipientSuspended  = errors.New("recipient account is suspended")
	ErrSweepInProgress     = errors.New("sweep already running")
)
