package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/pkg/sweepclient"
)

type sweepClientStub struct {
	gainsErr    error
	gainsCalls  int
	maturityRes *domain.SweepResult
}

func (s *sweepClientStub) RunDailyGains(context.Context) (*domain.SweepResult, error) {
	s.gainsCalls++
	if s.gainsErr != nil {
		return nil, s.gainsErr
	}
	return &domain.SweepResult{Sweep: "daily-gains", Credited: 2}, nil
}

func (s *sweepClientStub) RunMaturity(context.Context) (*domain.SweepResult, error) {
	return s.maturityRes, nil
}

func newTestJobs(client SweepClient) (*Jobs, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewJobs(client, logger, time.Second), &buf
}

func TestCreditDailyGainsTreatsConflictAsSkip(t *testing.T) {
	client := &sweepClientStub{gainsErr: &sweepclient.StatusError{StatusCode: http.StatusConflict}}
	jobs, logs := newTestJobs(client)

	jobs.CreditDailyGains()

	if client.gainsCalls != 1 {
		t.Fatalf("expected one sweep call, got %d", client.gainsCalls)
	}
	if !strings.Contains(logs.String(), "already running") || strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("expected conflict to be logged as a skip, got:\n%s", logs.String())
	}
}

func TestCreditDailyGainsLogsFailures(t *testing.T) {
	jobs, logs := newTestJobs(&sweepClientStub{gainsErr: errors.New("connection refused")})

	jobs.CreditDailyGains()

	if !strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("expected error log, got:\n%s", logs.String())
	}
}

func TestMatureInvestmentsWarnsOnPartialFailure(t *testing.T) {
	jobs, logs := newTestJobs(&sweepClientStub{maturityRes: &domain.SweepResult{Sweep: "maturity", Credited: 1, Failed: 1}})

	jobs.MatureInvestments()

	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "failed=1") {
		t.Fatalf("expected warning with failure count, got:\n%s", logs.String())
	}
}

func TestSchedulerRejectsInvalidSchedule(t *testing.T) {
	jobs, _ := newTestJobs(&sweepClientStub{})
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := NewScheduler(jobs, logger, config.SchedulerConfig{DailyGainSchedule: "not a schedule", MaturitySchedule: "*/30 * * * *"})

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected invalid schedule to be rejected")
	}
}
