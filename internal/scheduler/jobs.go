/**
 * @description
 * Scheduled sweep jobs. Each job asks the API to run a sweep; the API owns the ledger and
 * the sweep lock, so the scheduler stays stateless.
 */
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/pkg/sweepclient"
)

// SweepClient triggers sweeps on the API.
type SweepClient interface {
	RunDailyGains(ctx context.Context) (*domain.SweepResult, error)
	RunMaturity(ctx context.Context) (*domain.SweepResult, error)
}

// Jobs contains the scheduled tasks.
type Jobs struct {
	client  SweepClient
	logger  *slog.Logger
	timeout time.Duration
}

func NewJobs(client SweepClient, logger *slog.Logger, timeout time.Duration) *Jobs {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Jobs{client: client, logger: logger, timeout: timeout}
}

// CreditDailyGains triggers the daily gain sweep.
func (j *Jobs) CreditDailyGains() {
	j.run("daily gain", j.client.RunDailyGains)
}

// MatureInvestments triggers the maturity sweep.
func (j *Jobs) MatureInvestments() {
	j.run("maturity", j.client.RunMaturity)
}

func (j *Jobs) run(name string, sweep func(context.Context) (*domain.SweepResult, error)) {
	j.logger.Info("starting sweep job", "job", name)
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := sweep(ctx)
	if err != nil {
		var statusErr *sweepclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			j.logger.Info("sweep already running elsewhere; skipping", "job", name)
			return
		}
		j.logger.Error("sweep job failed", "job", name, "error", err)
		return
	}

	level := slog.LevelInfo
	if result.Failed > 0 {
		level = slog.LevelWarn
	}
	j.logger.Log(ctx, level, "sweep job finished",
		"job", name,
		"evaluated", result.Evaluated,
		"credited", result.Credited,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"amount", result.Amount,
	)
}
