package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

// stubRepo overrides only what a test needs; calling anything else panics on the nil
// embedded interface.
type stubRepo struct {
	store.Repository

	createUserFn         func(ctx context.Context, user *domain.User, ip string) error
	findByEmailFn        func(ctx context.Context, email string) (*domain.User, error)
	findByHandleFn       func(ctx context.Context, handle string) (*domain.User, error)
	findByReferralCodeFn func(ctx context.Context, code string) (*domain.User, error)
	createResetFn        func(ctx context.Context, user *domain.User, tokenHash, raw string, expiresAt time.Time) error
	activeInvestmentsFn  func(ctx context.Context) ([]domain.Investment, error)
	maturedFn            func(ctx context.Context, now time.Time) ([]domain.Investment, error)
	creditFn             func(ctx context.Context, id uuid.UUID, day time.Time, amount int64) (bool, error)
	matureFn             func(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Investment, error)
	createTransferFn     func(ctx context.Context, transfer *domain.Transfer) error
	listUserIDsFn        func(ctx context.Context) ([]uuid.UUID, error)
	reconcileFn          func(ctx context.Context, userID uuid.UUID) (*domain.BalanceRepair, error)
	getPlanFn            func(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error)
	createInvestmentFn   func(ctx context.Context, inv *domain.Investment) error
	listInvestmentsFn    func(ctx context.Context, userID uuid.UUID, status domain.InvestmentStatus) ([]domain.Investment, error)
	createDepositFn      func(ctx context.Context, deposit *domain.DepositRequest) error
	listDepositsFn       func(ctx context.Context, status domain.DepositStatus, opts domain.ListOptions) ([]domain.DepositRequest, error)
	createWithdrawalFn   func(ctx context.Context, w *domain.WithdrawalRequest) error
	listWithdrawalsFn    func(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOptions) ([]domain.WithdrawalRequest, error)
	redeemReferralFn     func(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Balances, error)
	activeUserIDsFn      func(ctx context.Context) ([]uuid.UUID, error)
	createNotificationFn func(ctx context.Context, userIDs []uuid.UUID, template domain.Notification) (int, error)
	subscribersFn        func(ctx context.Context) ([]domain.NewsletterSubscriber, error)
	newsletterUserIDsFn  func(ctx context.Context) ([]uuid.UUID, error)
	enqueueNewsletterFn  func(ctx context.Context, batches []domain.NewsletterDispatchEvent) error

	activity []domain.ActivityLog
}

func (s *stubRepo) CreateUser(ctx context.Context, user *domain.User, ip string) error {
	return s.createUserFn(ctx, user, ip)
}

func (s *stubRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findByEmailFn(ctx, email)
}

func (s *stubRepo) FindUserByHandle(ctx context.Context, handle string) (*domain.User, error) {
	return s.findByHandleFn(ctx, handle)
}

func (s *stubRepo) FindUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return s.findByReferralCodeFn(ctx, code)
}

func (s *stubRepo) CreatePasswordReset(ctx context.Context, user *domain.User, tokenHash, raw string, expiresAt time.Time) error {
	return s.createResetFn(ctx, user, tokenHash, raw, expiresAt)
}

func (s *stubRepo) RecordActivity(ctx context.Context, entry domain.ActivityLog) error {
	s.activity = append(s.activity, entry)
	return nil
}

func (s *stubRepo) ListActiveInvestments(ctx context.Context) ([]domain.Investment, error) {
	return s.activeInvestmentsFn(ctx)
}

func (s *stubRepo) ListMaturedInvestments(ctx context.Context, now time.Time) ([]domain.Investment, error) {
	return s.maturedFn(ctx, now)
}

func (s *stubRepo) CreditDailyGain(ctx context.Context, id uuid.UUID, day time.Time, amount int64) (bool, error) {
	return s.creditFn(ctx, id, day, amount)
}

func (s *stubRepo) MatureInvestment(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Investment, error) {
	return s.matureFn(ctx, id, now)
}

func (s *stubRepo) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	return s.createTransferFn(ctx, transfer)
}

func (s *stubRepo) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.listUserIDsFn(ctx)
}

func (s *stubRepo) ReconcileInvestmentBucket(ctx context.Context, userID uuid.UUID) (*domain.BalanceRepair, error) {
	return s.reconcileFn(ctx, userID)
}

func (s *stubRepo) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.InvestmentPlan, error) {
	return s.getPlanFn(ctx, planID)
}

func (s *stubRepo) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	return s.createInvestmentFn(ctx, inv)
}

func (s *stubRepo) ListInvestments(ctx context.Context, userID uuid.UUID, status domain.InvestmentStatus) ([]domain.Investment, error) {
	return s.listInvestmentsFn(ctx, userID, status)
}

func (s *stubRepo) CreateDeposit(ctx context.Context, deposit *domain.DepositRequest) error {
	return s.createDepositFn(ctx, deposit)
}

func (s *stubRepo) ListDeposits(ctx context.Context, status domain.DepositStatus, opts domain.ListOptions) ([]domain.DepositRequest, error) {
	return s.listDepositsFn(ctx, status, opts)
}

func (s *stubRepo) CreateWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	return s.createWithdrawalFn(ctx, w)
}

func (s *stubRepo) ListWithdrawals(ctx context.Context, status domain.WithdrawalStatus, opts domain.ListOptions) ([]domain.WithdrawalRequest, error) {
	return s.listWithdrawalsFn(ctx, status, opts)
}

func (s *stubRepo) RedeemReferral(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Balances, error) {
	return s.redeemReferralFn(ctx, userID, amount)
}

func (s *stubRepo) ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.activeUserIDsFn(ctx)
}

func (s *stubRepo) CreateNotifications(ctx context.Context, userIDs []uuid.UUID, template domain.Notification) (int, error) {
	return s.createNotificationFn(ctx, userIDs, template)
}

func (s *stubRepo) ListSubscribers(ctx context.Context) ([]domain.NewsletterSubscriber, error) {
	return s.subscribersFn(ctx)
}

func (s *stubRepo) ListNewsletterUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.newsletterUserIDsFn(ctx)
}

func (s *stubRepo) EnqueueNewsletter(ctx context.Context, batches []domain.NewsletterDispatchEvent) error {
	return s.enqueueNewsletterFn(ctx, batches)
}

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(repo store.Repository) *Service {
	settings := Settings{
		MinDeposit:           1000,
		MinWithdrawal:        1000,
		MinTransfer:          100,
		TransferFeePercent:   decimal.RequireFromString("1.5"),
		ReferralBonusPercent: decimal.RequireFromString("5"),
		PublicBaseURL:        "https://stackvest.test",
		NewsletterBatchSize:  2,
	}
	tokens := NewTokenIssuer("test-secret", "stackvest", time.Hour)
	svc := NewService(repo, tokens, settings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc
}
