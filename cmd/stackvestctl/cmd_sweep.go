package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/stackvest/backend/internal/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run an investment sweep in-process",
	Long: `Run the daily gain or maturity sweep directly against the database.
No sweep lock is taken here; gain credits are keyed per investment and day,
so a run that overlaps the scheduler cannot double-credit.`,
}

var sweepGainsCmd = &cobra.Command{
	Use:   "gains",
	Short: "Credit daily gains, catching up missed days",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			result, err := svc.RunDailyGains(ctx)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		})
	},
}

var sweepMaturityCmd = &cobra.Command{
	Use:   "maturity",
	Short: "Complete matured investments and release principal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			result, err := svc.RunMaturity(ctx)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile investment balances against active investments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			report, err := svc.FixBalances(ctx)
			if report != nil {
				if perr := printResult(cmd.OutOrStdout(), report); perr != nil {
					return perr
				}
			}
			return err
		})
	},
}

func printResult(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
