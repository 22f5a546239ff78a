package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound            = errors.New("user not found")
	ErrEmailTaken              = errors.New("email is already registered")
	ErrUsernameTaken           = errors.New("username is already taken")
	ErrReferralCodeTaken       = errors.New("referral code already in use")
	ErrBalanceNotFound         = errors.New("balance record not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrPlanNotFound            = errors.New("investment plan not found")
	ErrPlanNameTaken           = errors.New("investment plan name already exists")
	ErrPlanInactive            = errors.New("investment plan is not active")
	ErrInvestmentNotFound      = errors.New("investment not found")
	ErrInvestmentNotActive     = errors.New("investment is not active")
	ErrDepositNotFound         = errors.New("deposit request not found")
	ErrWithdrawalNotFound      = errors.New("withdrawal request not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrSubscriberNotFound      = errors.New("newsletter subscriber not found")
	ErrSupportMessageNotFound  = errors.New("support message not found")
	ErrResetTokenInvalid       = errors.New("password reset token is invalid or expired")
	ErrInvestmentNotMatured    = errors.New("investment has not reached its end date")
	ErrBalanceDrift            = errors.New("investment balance is lower than the principal being released")
	ErrUnknownRecipient        = errors.New("one or more recipients do not exist")
)

const (
	uniqueViolation     = "23505"
	checkViolation      = "23514"
	foreignKeyViolation = "23503"
)

func pgErrorCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

func isUniqueViolation(err error) bool {
	code, _ := pgErrorCode(err)
	return code == uniqueViolation
}

// mapBalanceError turns a balances CHECK (>= 0) violation into ErrInsufficientFunds.
func mapBalanceError(err error) error {
	if code, _ := pgErrorCode(err); code == checkViolation {
		return ErrInsufficientFunds
	}
	return err
}

// mapRecipientError reports a notifications.user_id foreign key failure as ErrUnknownRecipient.
func mapRecipientError(err error) error {
	if code, _ := pgErrorCode(err); code == foreignKeyViolation {
		return ErrUnknownRecipient
	}
	return err
}
