package main

import (
	"testing"

	"github.com/stackvest/backend/internal/domain"
)

func TestDefaultPlansAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, in := range defaultPlans() {
		plan := domain.InvestmentPlan{
			Name:            in.Name,
			MinAmount:       in.MinAmount,
			MaxAmount:       in.MaxAmount,
			DurationDays:    in.DurationDays,
			DailyROIPercent: in.DailyROIPercent,
		}
		if err := plan.Validate(); err != nil {
			t.Errorf("plan %q invalid: %v", in.Name, err)
		}
		if seen[in.Name] {
			t.Errorf("duplicate plan name %q", in.Name)
		}
		seen[in.Name] = true
	}
}

func TestCommandTree(t *testing.T) {
	paths := [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"sweep", "gains"},
		{"sweep", "maturity"},
		{"reconcile"},
		{"admin", "create"},
		{"plans", "seed"},
	}
	for _, path := range paths {
		cmd, rest, err := rootCmd.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if len(rest) != 0 || cmd.Name() != path[len(path)-1] {
			t.Errorf("find %v resolved to %q (rest %v)", path, cmd.Name(), rest)
		}
	}
	if f := migrateDownCmd.Flags().Lookup("steps"); f == nil || f.DefValue != "1" {
		t.Errorf("migrate down --steps flag missing or wrong default")
	}
}
