package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// SchedulerConfig holds the configuration for the scheduler process.
type SchedulerConfig struct {
	APIBaseURL         string `mapstructure:"API_BASE_URL"`
	InternalAPIKey     string `mapstructure:"INTERNAL_API_KEY"`
	DailyGainSchedule  string `mapstructure:"DAILY_GAIN_SCHEDULE"`
	MaturitySchedule   string `mapstructure:"MATURITY_SCHEDULE"`
	RequestTimeoutSecs int    `mapstructure:"SWEEP_REQUEST_TIMEOUT_SECONDS"`
	RunOnStart         bool   `mapstructure:"SWEEP_RUN_ON_START"`
}

// LoadSchedulerConfig reads scheduler settings from environment variables.
func LoadSchedulerConfig() (*SchedulerConfig, error) {
	viper.SetDefault("API_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DAILY_GAIN_SCHEDULE", "5 0 * * *")  // 00:05 every day.
	viper.SetDefault("MATURITY_SCHEDULE", "*/30 * * * *") // Every 30 minutes.
	viper.SetDefault("SWEEP_REQUEST_TIMEOUT_SECONDS", 300)
	viper.SetDefault("SWEEP_RUN_ON_START", false)
	viper.AutomaticEnv()

	_ = viper.BindEnv("API_BASE_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "SCHEDULER_INTERNAL_API_KEY")
	_ = viper.BindEnv("DAILY_GAIN_SCHEDULE")
	_ = viper.BindEnv("MATURITY_SCHEDULE")
	_ = viper.BindEnv("SWEEP_REQUEST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("SWEEP_RUN_ON_START")

	var cfg SchedulerConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.InternalAPIKey = strings.TrimSpace(cfg.InternalAPIKey)
	if cfg.InternalAPIKey == "" {
		return nil, errors.New("INTERNAL_API_KEY must be configured")
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, errors.New("API_BASE_URL must be configured")
	}
	if cfg.RequestTimeoutSecs <= 0 {
		cfg.RequestTimeoutSecs = 300
	}

	return &cfg, nil
}
