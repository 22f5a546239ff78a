package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPendingGainDatesCatchesUpMissedDays(t *testing.T) {
	inv := Investment{
		StartedAt: time.Date(2025, 3, 1, 15, 30, 0, 0, time.UTC),
		EndsAt:    time.Date(2025, 3, 11, 15, 30, 0, 0, time.UTC),
	}
	now := time.Date(2025, 3, 4, 0, 5, 0, 0, time.UTC)

	dates := inv.PendingGainDates(now)
	want := []time.Time{day(2025, 3, 2), day(2025, 3, 3), day(2025, 3, 4)}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Fatalf("date %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestPendingGainDatesSkipsCreditedDays(t *testing.T) {
	last := day(2025, 3, 3)
	inv := Investment{
		StartedAt:    day(2025, 3, 1),
		EndsAt:       day(2025, 3, 11),
		LastGainDate: &last,
	}
	dates := inv.PendingGainDates(time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC))
	if len(dates) != 1 || !dates[0].Equal(day(2025, 3, 4)) {
		t.Fatalf("expected only 2025-03-04, got %v", dates)
	}

	if dates := inv.PendingGainDates(time.Date(2025, 3, 3, 23, 0, 0, 0, time.UTC)); len(dates) != 0 {
		t.Fatalf("expected nothing pending, got %v", dates)
	}
}

func TestPendingGainDatesStopsAtEndDate(t *testing.T) {
	inv := Investment{
		StartedAt:    day(2025, 3, 1),
		EndsAt:       day(2025, 3, 4),
		DurationDays: 3,
	}
	dates := inv.PendingGainDates(day(2025, 4, 1))
	if len(dates) != inv.DurationDays {
		t.Fatalf("expected %d gain days, got %v", inv.DurationDays, dates)
	}
	if !dates[len(dates)-1].Equal(day(2025, 3, 4)) {
		t.Fatalf("expected last date 2025-03-04, got %s", dates[len(dates)-1])
	}
}

func TestDailyGain(t *testing.T) {
	inv := Investment{Amount: 50000, DailyROIPercent: decimal.RequireFromString("2.5")}
	if got := inv.DailyGain(); got != 1250 {
		t.Fatalf("expected 1250, got %d", got)
	}
}

func TestPlanValidate(t *testing.T) {
	valid := InvestmentPlan{
		Name:            "Starter",
		MinAmount:       1000,
		MaxAmount:       100000,
		DurationDays:    7,
		DailyROIPercent: decimal.RequireFromString("1.2"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid plan, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(p *InvestmentPlan)
		want   error
	}{
		{"blank name", func(p *InvestmentPlan) { p.Name = "  " }, ErrPlanNameRequired},
		{"zero min", func(p *InvestmentPlan) { p.MinAmount = 0 }, ErrPlanInvalidMin},
		{"max below min", func(p *InvestmentPlan) { p.MaxAmount = 500 }, ErrPlanInvalidMax},
		{"zero duration", func(p *InvestmentPlan) { p.DurationDays = 0 }, ErrPlanInvalidDays},
		{"zero roi", func(p *InvestmentPlan) { p.DailyROIPercent = decimal.Zero }, ErrPlanInvalidROI},
		{"roi above 100", func(p *InvestmentPlan) { p.DailyROIPercent = decimal.NewFromInt(101) }, ErrPlanInvalidROI},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := valid
			tc.mutate(&plan)
			if err := plan.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	uncapped := valid
	uncapped.MaxAmount = 0
	if err := uncapped.CheckAmount(1 << 40); err != nil {
		t.Fatalf("expected uncapped plan to accept large amount, got %v", err)
	}
	if err := valid.CheckAmount(999); !errors.Is(err, ErrAmountBelowPlanMin) {
		t.Fatalf("expected ErrAmountBelowPlanMin, got %v", err)
	}
	if err := valid.CheckAmount(100001); !errors.Is(err, ErrAmountAbovePlanMax) {
		t.Fatalf("expected ErrAmountAbovePlanMax, got %v", err)
	}
}

func TestPlanJSONIncludesTotalROI(t *testing.T) {
	plan := InvestmentPlan{
		Name:            "Growth",
		MinAmount:       100000,
		DurationDays:    30,
		DailyROIPercent: decimal.RequireFromString("1.5"),
	}
	blob, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(blob, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["total_roi_percent"] != "45" {
		t.Fatalf("expected total_roi_percent 45, got %v", got["total_roi_percent"])
	}
	if got["name"] != "Growth" || got["daily_roi_percent"] != "1.5" {
		t.Fatalf("plan fields missing from JSON: %s", blob)
	}
}
