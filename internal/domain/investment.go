package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStatus is the lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

// Investment is a principal placed into a plan. Plan terms are snapshotted at creation so
// later plan edits never change running investments.
type Investment struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	PlanID          uuid.UUID        `json:"plan_id"`
	PlanName        string           `json:"plan_name"`
	Amount          int64            `json:"amount"`
	DailyROIPercent decimal.Decimal  `json:"daily_roi_percent"`
	DurationDays    int              `json:"duration_days"`
	CapitalBack     bool             `json:"capital_back"`
	Status          InvestmentStatus `json:"status"`
	StartedAt       time.Time        `json:"started_at"`
	EndsAt          time.Time        `json:"ends_at"`
	LastGainDate    *time.Time       `json:"last_gain_date,omitempty"`
	TotalEarned     int64            `json:"total_earned"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// DailyGain is the amount credited for one accrual day.
func (i Investment) DailyGain() int64 {
	return PercentOf(i.Amount, i.DailyROIPercent)
}

// Matured reports whether the investment has reached its end date at now.
func (i Investment) Matured(now time.Time) bool {
	return !now.Before(i.EndsAt)
}

// PendingGainDates lists the UTC calendar dates that are owed a gain at now: every date d
// with start < d <= min(today, end) that is after the last credited date.
func (i Investment) PendingGainDates(now time.Time) []time.Time {
	start := TruncateDay(i.StartedAt)
	last := TruncateDay(now)
	if end := TruncateDay(i.EndsAt); end.Before(last) {
		last = end
	}

	first := start.AddDate(0, 0, 1)
	if i.LastGainDate != nil {
		if next := TruncateDay(*i.LastGainDate).AddDate(0, 0, 1); next.After(first) {
			first = next
		}
	}

	var dates []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// TruncateDay returns midnight UTC of t's UTC calendar date.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// InvestRequest is the DTO for opening an investment.
type InvestRequest struct {
	PlanID uuid.UUID `json:"plan_id"`
	Amount int64     `json:"amount"`
}

// SweepResult summarises one accrual or maturity sweep.
type SweepResult struct {
	Sweep     string    `json:"sweep"`
	StartedAt time.Time `json:"started_at"`
	Evaluated int       `json:"evaluated"`
	Credited  int       `json:"credited"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Amount    int64     `json:"amount"`
}
