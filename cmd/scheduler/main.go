/**
 * @description
 * Entry point of the Stackvest scheduler: a long-running cron process that triggers the
 * accrual and maturity sweeps through the API's internal endpoints.
 */
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/scheduler"
	"github.com/stackvest/backend/pkg/sweepclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadSchedulerConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	timeout := time.Duration(cfg.RequestTimeoutSecs) * time.Second
	client := sweepclient.NewClient(cfg.APIBaseURL, cfg.InternalAPIKey, timeout)
	jobs := scheduler.NewJobs(client, logger, timeout)
	s := scheduler.NewScheduler(jobs, logger, *cfg)

	if err := s.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	logger.Info("scheduler started", "api_base_url", cfg.APIBaseURL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := s.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}
