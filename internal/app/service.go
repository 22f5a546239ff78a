/**
 * @description
 * Service holds the business rules of the Stackvest API: validation, limits, fee and bonus
 * percentages, and sweep orchestration. Atomic balance changes are delegated to the
 * repository, which runs each of them in one database transaction.
 *
 * @dependencies
 * - internal/store: data access.
 * - internal/config: runtime limits and percentages.
 * - log/slog: structured logging.
 */

package app

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/store"
)

// Settings are the tunable limits the service enforces.
type Settings struct {
	MinDeposit           int64
	MinWithdrawal        int64
	MinTransfer          int64
	TransferFeePercent   decimal.Decimal
	ReferralBonusPercent decimal.Decimal
	PasswordResetTTL     time.Duration
	PublicBaseURL        string
	NewsletterBatchSize  int
	SweepLockTTL         time.Duration
}

// SettingsFromConfig maps the API configuration onto service settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		MinDeposit:           cfg.MinDepositCents,
		MinWithdrawal:        cfg.MinWithdrawalCents,
		MinTransfer:          cfg.MinTransferCents,
		TransferFeePercent:   cfg.TransferFeePercent,
		ReferralBonusPercent: cfg.ReferralBonusPercent,
		PasswordResetTTL:     time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		PublicBaseURL:        cfg.PublicBaseURL,
		NewsletterBatchSize:  cfg.NewsletterBatchSize,
		SweepLockTTL:         time.Duration(cfg.SweepLockTTLSeconds) * time.Second,
	}
}

// Service provides the platform's use cases.
type Service struct {
	repo      store.Repository
	tokens    *TokenIssuer
	settings  Settings
	logger    *slog.Logger
	sweepLock SweepLocker
	now       func() time.Time
}

// NewService creates a service. A nil logger falls back to slog.Default.
func NewService(repo store.Repository, tokens *TokenIssuer, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.NewsletterBatchSize <= 0 {
		settings.NewsletterBatchSize = 100
	}
	if settings.PasswordResetTTL <= 0 {
		settings.PasswordResetTTL = 30 * time.Minute
	}
	if settings.SweepLockTTL <= 0 {
		settings.SweepLockTTL = 10 * time.Minute
	}
	return &Service{
		repo:     repo,
		tokens:   tokens,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetSweepLocker installs a distributed lock for sweeps. Without one, sweeps rely on the
// gain credit key alone.
func (s *Service) SetSweepLocker(locker SweepLocker) {
	s.sweepLock = locker
}

// Tokens exposes the issuer so middleware can validate bearer tokens.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}
