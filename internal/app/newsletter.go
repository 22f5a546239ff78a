package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

// Subscribe adds an address to the newsletter. Repeated calls are harmless.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.repo.Subscribe(ctx, normalized, uuid.NewString())
}

func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	return s.repo.Unsubscribe(ctx, token)
}

// SendNewsletter splits the subscriber list into dispatch batches for the notifier and,
// when requested, also creates a newsletter notification for subscribed users.
func (s *Service) SendNewsletter(ctx context.Context, req domain.NewsletterRequest) (*domain.NewsletterResult, error) {
	subject := strings.TrimSpace(req.Subject)
	body := strings.TrimSpace(req.Body)
	if subject == "" || body == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}

	subscribers, err := s.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, err
	}
	batches := batchRecipients(subscribers, s.settings.NewsletterBatchSize, subject, body)
	if len(batches) > 0 {
		if err := s.repo.EnqueueNewsletter(ctx, batches); err != nil {
			return nil, err
		}
	}
	result := &domain.NewsletterResult{Recipients: len(subscribers), Batches: len(batches)}

	// Emails are queued by now; an in-app failure is reported in the result only.
	if req.InApp {
		created, err := s.notifyNewsletterUsers(ctx, subject, body)
		if err != nil {
			s.logger.Warn("newsletter in-app notifications failed", "error", err)
			result.InAppFailed = true
		}
		result.Notifications = created
	}

	s.logger.Info("newsletter queued", "recipients", result.Recipients, "batches", result.Batches, "notifications", result.Notifications)
	return result, nil
}

func (s *Service) notifyNewsletterUsers(ctx context.Context, subject, body string) (int, error) {
	userIDs, err := s.repo.ListNewsletterUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	key := contentKey("newsletter", subject, body)
	return s.repo.CreateNotifications(ctx, userIDs, domain.Notification{
		Category:  domain.CategoryNewsletter,
		Title:     subject,
		Body:      body,
		DedupeKey: &key,
	})
}

func batchRecipients(subscribers []domain.NewsletterSubscriber, size int, subject, body string) []domain.NewsletterDispatchEvent {
	if size <= 0 {
		size = 100
	}
	var batches []domain.NewsletterDispatchEvent
	for start := 0; start < len(subscribers); start += size {
		end := start + size
		if end > len(subscribers) {
			end = len(subscribers)
		}
		recipients := make([]domain.NewsletterRecipient, 0, end-start)
		for _, sub := range subscribers[start:end] {
			recipients = append(recipients, domain.NewsletterRecipient{Email: sub.Email, UnsubscribeToken: sub.UnsubscribeToken})
		}
		batches = append(batches, domain.NewsletterDispatchEvent{Subject: subject, Body: body, Recipients: recipients})
	}
	return batches
}
