package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// NotifierConfig holds the configuration for the email notifier.
type NotifierConfig struct {
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`
	QueueName      string `mapstructure:"NOTIFIER_QUEUE"`
	MailAPIBaseURL string `mapstructure:"MAIL_API_BASE_URL"`
	MailAPIKey     string `mapstructure:"MAIL_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	PublicBaseURL  string `mapstructure:"PUBLIC_BASE_URL"`
	SupportEmail   string `mapstructure:"SUPPORT_EMAIL"`
}

// LoadNotifierConfig reads notifier settings from environment variables.
func LoadNotifierConfig() (*NotifierConfig, error) {
	viper.SetDefault("EVENTS_EXCHANGE", "stackvest.events")
	viper.SetDefault("NOTIFIER_QUEUE", "notifier.email")
	viper.SetDefault("MAIL_FROM", "Stackvest <no-reply@stackvest.io>")
	viper.SetDefault("PUBLIC_BASE_URL", "https://stackvest.io")
	viper.SetDefault("SUPPORT_EMAIL", "support@stackvest.io")
	viper.AutomaticEnv()

	for _, key := range []string{
		"RABBITMQ_URL", "EVENTS_EXCHANGE", "NOTIFIER_QUEUE", "MAIL_API_BASE_URL",
		"MAIL_API_KEY", "MAIL_FROM", "PUBLIC_BASE_URL", "SUPPORT_EMAIL",
	} {
		_ = viper.BindEnv(key)
	}

	var cfg NotifierConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		return nil, errors.New("RABBITMQ_URL must be configured")
	}
	if strings.TrimSpace(cfg.MailAPIBaseURL) == "" || strings.TrimSpace(cfg.MailAPIKey) == "" {
		return nil, errors.New("MAIL_API_BASE_URL and MAIL_API_KEY must be configured")
	}
	cfg.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.PublicBaseURL), "/")

	return &cfg, nil
}
