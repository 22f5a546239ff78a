package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/domain"
)

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(adminEmail) == "" || strings.TrimSpace(adminUsername) == "" || adminPassword == "" {
			return fmt.Errorf("--email, --username and --password are required")
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			user, err := svc.CreateAdmin(ctx, adminEmail, adminUsername, adminPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", user.Username, user.ID)
			return nil
		})
	},
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage investment plans",
}

var plansSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default plan catalogue; existing plans are left untouched",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			created, err := svc.SeedPlans(ctx, defaultPlans())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d plan(s) created\n", created)
			return nil
		})
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "Admin username")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
}

// defaultPlans is the starter catalogue. Amounts are in cents.
func defaultPlans() []domain.PlanInput {
	return []domain.PlanInput{
		{
			Name:            "Starter",
			Description:     "Entry plan with daily returns over two weeks.",
			MinAmount:       10_000,
			MaxAmount:       99_900,
			DurationDays:    14,
			DailyROIPercent: decimal.RequireFromString("1.5"),
			CapitalBack:     true,
			SortOrder:       1,
		},
		{
			Name:            "Growth",
			Description:     "Mid-tier plan for a one-month term.",
			MinAmount:       100_000,
			MaxAmount:       999_900,
			DurationDays:    30,
			DailyROIPercent: decimal.RequireFromString("2"),
			CapitalBack:     true,
			SortOrder:       2,
		},
		{
			Name:            "Premium",
			Description:     "Long-term plan with the highest daily rate.",
			MinAmount:       1_000_000,
			DurationDays:    60,
			DailyROIPercent: decimal.RequireFromString("2.5"),
			CapitalBack:     true,
			SortOrder:       3,
		},
	}
}
