/**
 * @description
 * Repository is the data access contract for the Stackvest API. Every operation that moves
 * money runs in a single Postgres transaction that also writes its ledger lines, in-app
 * notifications and outbox events, so a committed balance change and its side effects
 * can never diverge.
 *
 * @dependencies
 * - github.com/google/uuid: identifiers.
 * - github.com/shopspring/decimal: referral bonus percentage.
 * - internal/domain: domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
)

type Repository interface {
	// Users and auth
	CreateUser(ctx context.Context, user *domain.User, ipAddress string) error
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByHandle(ctx context.Context, handle string) (*domain.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, passwordHash string) error
	SetUserStatus(ctx context.Context, userID uuid.UUID, status domain.UserStatus) error
	ListUsers(ctx context.Context, search string, opts domain.ListOptions) ([]domain.User, error)
	ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)
	RecordActivity(ctx context.Context, entry domain.ActivityLog) error
	ListActivity(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.ActivityLog, error)
	CreatePasswordReset(ctx context.Context, user *domain.User, tokenHash, rawToken string, expiresAt time.Time) error
	ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error)

	// Balances and ledger
	GetBalances(ctx context.Context, userID uuid.UUID) (*domain.Balances, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, opts domain.TransactionListOptions) ([]domain.Transaction, error)
	GetDashboard(ctx context.Context, userID uuid.UUID) (*domain.Dashboard, error)

	// Plans
	ListPlans(ctx context.Context, activeOnly bool) ([]domain.InvestmentPlan, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error)
	CreatePlan(ctx context.Context, plan *domain.InvestmentPlan) error
	UpdatePlan(ctx context.Context, plan *domain.InvestmentPlan) error
	SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error

	// Investments and accrual
	CreateInvestment(ctx context.Context, inv *domain.Investment) error
	ListInvestments(ctx context.Context, userID uuid.UUID, status domain.InvestmentStatus) ([]domain.Investment, error)
	GetInvestment(ctx context.Context, userID, investmentID uuid.UUID) (*domain.Investment, error)
	ListActiveInvestments(ctx context.Context) ([]domain.Investment, error)
	ListMaturedInvestments(ctx context.Context, now time.Time) ([]domain.Investment, error)
	CreditDailyGain(ctx context.Context, investmentID uuid.UUID, gainDate time.Time, amount int64) (bool, error)
	MatureInvestment(ctx context.Context, investmentID uuid.UUID, now time.Time) (*domain.Investment, error)

	// Deposits and withdrawals
	CreateDeposit(ctx context.Context, deposit *domain.DepositRequest) error
	ListDepositsByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.DepositRequest, error)
	ListDeposits(ctx context.Context, status domain.DepositStatus, opts domain.ListOptions) ([]domain.DepositRequest, error)
	ApproveDeposit(ctx context.Context, depositID, adminID uuid.UUID, note string, bonusPercent decimal.Decimal) (*domain.DepositRequest, error)
	RejectDeposit(ctx context.Context, depositID, adminID uuid.UUID, note string) (*domain.DepositRequest, error)
	CreateWithdrawal(ctx context.Context, withdrawal *domain.WithdrawalRequest) error
	ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOptions) ([]domain.WithdrawalRequest, error)
	CompleteWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, note string) (*domain.WithdrawalRequest, error)
	RejectWithdrawal(ctx context.Context, withdrawalID, adminID uuid.UUID, note string) (*domain.WithdrawalRequest, error)

	// Transfers and referrals
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	ListTransfers(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.Transfer, error)
	ListReferrals(ctx context.Context, referrerID uuid.UUID) ([]domain.Referral, error)
	SumTransactions(ctx context.Context, userID uuid.UUID, txType domain.TransactionType) (int64, error)
	RedeemReferral(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Balances, error)

	// In-app notifications
	ListNotifications(ctx context.Context, userID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CreateNotifications(ctx context.Context, userIDs []uuid.UUID, template domain.Notification) (int, error)

	// Newsletter
	Subscribe(ctx context.Context, email, unsubscribeToken string) error
	Unsubscribe(ctx context.Context, unsubscribeToken string) error
	ListSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error)
	ListNewsletterUserIDs(ctx context.Context) ([]uuid.UUID, error)
	EnqueueNewsletter(ctx context.Context, batches []domain.NewsletterDispatchEvent) error

	// Support
	CreateSupportMessage(ctx context.Context, msg *domain.SupportMessage) error
	ListSupportMessagesByUser(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.SupportMessage, error)
	ListSupportMessages(ctx context.Context, status domain.SupportStatus, opts domain.ListOptions) ([]domain.SupportMessage, error)
	ReplySupportMessage(ctx context.Context, messageID uuid.UUID, reply string, now time.Time) (*domain.SupportMessage, error)
	CloseSupportMessage(ctx context.Context, messageID uuid.UUID) error

	// Admin
	AdjustBalance(ctx context.Context, userID, adminID uuid.UUID, adj domain.BalanceAdjustment) (*domain.Balances, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
	ReconcileInvestmentBucket(ctx context.Context, userID uuid.UUID) (*domain.BalanceRepair, error)
	GetPlatformStats(ctx context.Context, today time.Time) (*domain.PlatformStats, error)

	// Event outbox
	ClaimOutboxMessages(ctx context.Context, limit int, staleAfterSeconds int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error
}
