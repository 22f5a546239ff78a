/**
 * @description
 * Configuration management for the Stackvest binaries. Settings are read from the
 * environment (and an optional .env file) through Viper and unmarshalled into one
 * struct per binary.
 *
 * @dependencies
 * - github.com/spf13/viper: environment binding, defaults and unmarshalling.
 * - github.com/shopspring/decimal: percentage settings.
 */

package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the API service.
type Config struct {
	ServerPort              string   `mapstructure:"SERVER_PORT"`
	DatabaseURL             string   `mapstructure:"DATABASE_URL"`
	RedisURL                string   `mapstructure:"REDIS_URL"`
	RedisKeyPrefix          string   `mapstructure:"REDIS_KEY_PREFIX"`
	RabbitMQURL             string   `mapstructure:"RABBITMQ_URL"`
	EventsExchange          string   `mapstructure:"EVENTS_EXCHANGE"`
	JWTSecret               string   `mapstructure:"JWT_SECRET"`
	JWTIssuer               string   `mapstructure:"JWT_ISSUER"`
	JWTTTLMinutes           int      `mapstructure:"JWT_TTL_MINUTES"`
	InternalAPIKey          string   `mapstructure:"INTERNAL_API_KEY"`
	CORSAllowedOrigins      []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PublicBaseURL           string   `mapstructure:"PUBLIC_BASE_URL"`
	MinDepositCents         int64    `mapstructure:"MIN_DEPOSIT_CENTS"`
	MinWithdrawalCents      int64    `mapstructure:"MIN_WITHDRAWAL_CENTS"`
	MinTransferCents        int64    `mapstructure:"MIN_TRANSFER_CENTS"`
	TransferFeePercentRaw   string   `mapstructure:"TRANSFER_FEE_PERCENT"`
	ReferralBonusPercentRaw string   `mapstructure:"REFERRAL_BONUS_PERCENT"`
	PasswordResetTTLMinutes int      `mapstructure:"PASSWORD_RESET_TTL_MINUTES"`
	AuthRateLimitPerMinute  int      `mapstructure:"AUTH_RATE_LIMIT_PER_MINUTE"`
	NewsletterBatchSize     int      `mapstructure:"NEWSLETTER_BATCH_SIZE"`
	OutboxPollIntervalMs    int      `mapstructure:"OUTBOX_POLL_INTERVAL_MS"`
	SweepLockTTLSeconds     int      `mapstructure:"SWEEP_LOCK_TTL_SECONDS"`

	TransferFeePercent   decimal.Decimal `mapstructure:"-"`
	ReferralBonusPercent decimal.Decimal `mapstructure:"-"`
}

// LoadConfig reads the API configuration from the environment and an optional .env file
// in path.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_KEY_PREFIX", "stackvest")
	viper.SetDefault("EVENTS_EXCHANGE", "stackvest.events")
	viper.SetDefault("JWT_ISSUER", "stackvest")
	viper.SetDefault("JWT_TTL_MINUTES", 1440)
	viper.SetDefault("PUBLIC_BASE_URL", "https://stackvest.io")
	viper.SetDefault("MIN_DEPOSIT_CENTS", 1000)
	viper.SetDefault("MIN_WITHDRAWAL_CENTS", 1000)
	viper.SetDefault("MIN_TRANSFER_CENTS", 100)
	viper.SetDefault("TRANSFER_FEE_PERCENT", "1")
	viper.SetDefault("REFERRAL_BONUS_PERCENT", "5")
	viper.SetDefault("PASSWORD_RESET_TTL_MINUTES", 30)
	viper.SetDefault("AUTH_RATE_LIMIT_PER_MINUTE", 20)
	viper.SetDefault("NEWSLETTER_BATCH_SIZE", 100)
	viper.SetDefault("OUTBOX_POLL_INTERVAL_MS", 1000)
	viper.SetDefault("SWEEP_LOCK_TTL_SECONDS", 600)

	for _, key := range []string{
		"SERVER_PORT", "DATABASE_URL", "REDIS_URL", "REDIS_KEY_PREFIX", "RABBITMQ_URL",
		"EVENTS_EXCHANGE", "JWT_SECRET", "JWT_ISSUER", "JWT_TTL_MINUTES", "INTERNAL_API_KEY",
		"CORS_ALLOWED_ORIGINS", "PUBLIC_BASE_URL", "MIN_DEPOSIT_CENTS", "MIN_WITHDRAWAL_CENTS",
		"MIN_TRANSFER_CENTS", "TRANSFER_FEE_PERCENT", "REFERRAL_BONUS_PERCENT",
		"PASSWORD_RESET_TTL_MINUTES", "AUTH_RATE_LIMIT_PER_MINUTE", "NEWSLETTER_BATCH_SIZE",
		"OUTBOX_POLL_INTERVAL_MS", "SWEEP_LOCK_TTL_SECONDS",
	} {
		_ = viper.BindEnv(key)
	}

	readOptionalConfigFile()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.ServerPort = port
	}
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("DATABASE_URL must be configured")
	}
	if len(strings.TrimSpace(cfg.JWTSecret)) < 32 {
		return nil, errors.New("JWT_SECRET must be configured with at least 32 characters")
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		return nil, errors.New("INTERNAL_API_KEY must be configured")
	}

	cfg.TransferFeePercent = parsePercent("TRANSFER_FEE_PERCENT", cfg.TransferFeePercentRaw, decimal.NewFromInt(1))
	cfg.ReferralBonusPercent = parsePercent("REFERRAL_BONUS_PERCENT", cfg.ReferralBonusPercentRaw, decimal.NewFromInt(5))

	if cfg.JWTTTLMinutes <= 0 {
		cfg.JWTTTLMinutes = 1440
	}
	if cfg.MinDepositCents <= 0 {
		cfg.MinDepositCents = 1000
	}
	if cfg.MinWithdrawalCents <= 0 {
		cfg.MinWithdrawalCents = 1000
	}
	if cfg.MinTransferCents <= 0 {
		cfg.MinTransferCents = 100
	}
	if cfg.PasswordResetTTLMinutes <= 0 {
		cfg.PasswordResetTTLMinutes = 30
	}
	if cfg.AuthRateLimitPerMinute <= 0 {
		cfg.AuthRateLimitPerMinute = 20
	}
	if cfg.NewsletterBatchSize <= 0 || cfg.NewsletterBatchSize > 1000 {
		cfg.NewsletterBatchSize = 100
	}
	if cfg.OutboxPollIntervalMs < 100 {
		cfg.OutboxPollIntervalMs = 1000
	}
	if cfg.SweepLockTTLSeconds <= 0 {
		cfg.SweepLockTTLSeconds = 600
	}

	return &cfg, nil
}

// parsePercent parses a percentage setting and coerces it into [0, 100].
func parsePercent(key, raw string, fallback decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Warn("invalid percentage setting; using default", "key", key, "value", raw, "error", err)
		return fallback
	}
	if value.IsNegative() {
		slog.Warn("negative percentage configured; coercing to zero", "key", key, "value", raw)
		return decimal.Zero
	}
	if value.GreaterThan(decimal.NewFromInt(100)) {
		slog.Warn("percentage too high; capping at 100", "key", key, "value", raw)
		return decimal.NewFromInt(100)
	}
	return value
}

func readOptionalConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
