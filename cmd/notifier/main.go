/**
 * @description
 * Entry point of the Stackvest notifier. It consumes domain events from RabbitMQ and sends
 * transactional email through the mail API.
 */
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stackvest/backend/internal/config"
	"github.com/stackvest/backend/internal/notifier"
	"github.com/stackvest/backend/pkg/mailclient"
	"github.com/stackvest/backend/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadNotifierConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	mailer := mailclient.NewClient(cfg.MailAPIBaseURL, cfg.MailAPIKey, cfg.MailFrom)
	handler := notifier.NewHandler(mailer, cfg.PublicBaseURL, cfg.SupportEmail, logger)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL, 10)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "rabbitmq_url", rabbitmq.MaskURL(cfg.RabbitMQURL), "error", err)
		os.Exit(1)
	}
	defer consumer.Close()
	closed := consumer.NotifyClose()

	if err := consumer.ConsumeWithBindings(cfg.EventsExchange, cfg.QueueName, handler.Bindings()); err != nil {
		logger.Error("failed to start consuming", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier consuming", "exchange", cfg.EventsExchange, "queue", cfg.QueueName)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutdown signal received")
	case amqpErr := <-closed:
		// Exit so the supervisor restarts the process with a fresh connection.
		logger.Error("rabbitmq connection closed", "error", amqpErr)
		consumer.Close()
		os.Exit(1)
	}
	logger.Info("notifier stopped")
}
