package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/stackvest/backend/internal/metrics"
	"github.com/stackvest/backend/internal/store"
	"github.com/stackvest/backend/pkg/rabbitmq"
)

const (
	defaultOutboxBatchSize = 50
	defaultPollInterval    = 1200 * time.Millisecond
	defaultStaleProcessing = 2 * time.Minute
)

// OutboxStore is the part of the repository the dispatcher needs.
type OutboxStore interface {
	ClaimOutboxMessages(ctx context.Context, limit int, staleAfterSeconds int) ([]store.OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, id int64) error
	MarkOutboxFailed(ctx context.Context, id int64, retryAfterSeconds int, reason string) error
}

// PublisherFactory opens a broker connection on demand.
type PublisherFactory func() (rabbitmq.Publisher, error)

// OutboxDispatcher relays committed events from the outbox table to RabbitMQ.
type OutboxDispatcher struct {
	repo                OutboxStore
	newPublisher        PublisherFactory
	batchSize           int
	pollInterval        time.Duration
	staleProcessingTime time.Duration
	publisher           rabbitmq.Publisher
	logger              *slog.Logger
}

func NewOutboxDispatcher(repo OutboxStore, rabbitURL string, pollInterval time.Duration, logger *slog.Logger) *OutboxDispatcher {
	factory := func() (rabbitmq.Publisher, error) {
		return rabbitmq.NewEventProducer(rabbitURL)
	}
	return newOutboxDispatcher(repo, factory, pollInterval, logger)
}

func newOutboxDispatcher(repo OutboxStore, factory PublisherFactory, pollInterval time.Duration, logger *slog.Logger) *OutboxDispatcher {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxDispatcher{
		repo:                repo,
		newPublisher:        factory,
		batchSize:           defaultOutboxBatchSize,
		pollInterval:        pollInterval,
		staleProcessingTime: defaultStaleProcessing,
		logger:              logger,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	defer d.closePublisher()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.flushOnce(ctx); err != nil {
				d.logger.Error("outbox flush failed", "error", err)
			}
		}
	}
}

func (d *OutboxDispatcher) flushOnce(ctx context.Context) error {
	staleAfterSeconds := int(d.staleProcessingTime.Seconds())
	messages, err := d.repo.ClaimOutboxMessages(ctx, d.batchSize, staleAfterSeconds)
	if err != nil {
		return err
	}

	for _, message := range messages {
		if err := d.publishMessage(ctx, message); err != nil {
			retryAfter := retryDelaySeconds(message.Attempts)
			metrics.RecordOutbox("failed")
			d.logger.Warn("outbox publish failed",
				"outbox_id", message.ID, "routing_key", message.RoutingKey, "attempts", message.Attempts,
				"retry_after_seconds", retryAfter, "error", err)
			if markErr := d.repo.MarkOutboxFailed(ctx, message.ID, retryAfter, err.Error()); markErr != nil {
				d.logger.Error("failed to mark outbox message failed", "outbox_id", message.ID, "error", markErr)
			}
			continue
		}
		metrics.RecordOutbox("published")
		if err := d.repo.MarkOutboxPublished(ctx, message.ID); err != nil {
			d.logger.Error("failed to mark outbox message published", "outbox_id", message.ID, "error", err)
		}
	}
	return nil
}

func (d *OutboxDispatcher) publishMessage(ctx context.Context, message store.OutboxMessage) error {
	if d.publisher == nil {
		publisher, err := d.newPublisher()
		if err != nil {
			return err
		}
		d.publisher = publisher
	}

	if err := d.publisher.PublishJSON(ctx, message.Exchange, message.RoutingKey, message.Payload); err != nil {
		d.closePublisher()
		return err
	}
	return nil
}

func (d *OutboxDispatcher) closePublisher() {
	if d.publisher != nil {
		d.publisher.Close()
		d.publisher = nil
	}
}

func retryDelaySeconds(attempt int) int {
	if attempt < 1 {
		return 1
	}
	delay := 1 << min(attempt, 8)
	if delay > 300 {
		return 300
	}
	return delay
}
