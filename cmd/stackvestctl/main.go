package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	logger *slog.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "stackvestctl",
	Short: "Operator tooling for the Stackvest backend",
	Long: `stackvestctl runs maintenance tasks directly against the Stackvest database:
schema migrations, accrual and maturity sweeps, balance reconciliation,
admin bootstrap and plan seeding.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		_ = godotenv.Load()
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding app.env")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall command timeout")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	sweepCmd.AddCommand(sweepGainsCmd, sweepMaturityCmd)
	adminCmd.AddCommand(adminCreateCmd)
	plansCmd.AddCommand(plansSeedCmd)
	rootCmd.AddCommand(migrateCmd, sweepCmd, reconcileCmd, adminCmd, plansCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withService opens the database, builds the service and runs fn within the command timeout.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL, 4)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	repo := store.NewPostgresRepository(pool, cfg.EventsExchange)
	tokens := app.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	return fn(ctx, app.NewService(repo, tokens, app.SettingsFromConfig(cfg), logger))
}
