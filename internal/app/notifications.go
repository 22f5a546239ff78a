package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

func (s *Service) ListNotifications(ctx context.Context, userID uuid.UUID, opts domain.NotificationListOptions) ([]domain.Notification, error) {
	opts.Status = strings.ToLower(strings.TrimSpace(opts.Status))
	switch opts.Status {
	case "", "read", "unread":
	default:
		return nil, fmt.Errorf("%w: status must be read or unread", ErrInvalidInput)
	}
	if opts.Category != "" && !opts.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, opts.Category)
	}
	items, err := s.repo.ListNotifications(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.Notification{}
	}
	return items, err
}

func (s *Service) UnreadNotificationCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnreadNotifications(ctx, userID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

// SendNotification materialises an admin notification for the listed users or, with All,
// every active user.
func (s *Service) SendNotification(ctx context.Context, req domain.SendNotificationRequest) (*domain.SendResult, error) {
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return nil, fmt.Errorf("%w: title and body are required", ErrInvalidInput)
	}
	category := req.Category
	if category == "" {
		category = domain.CategorySystem
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}

	recipients := req.UserIDs
	if req.All {
		ids, err := s.repo.ListActiveUserIDs(ctx)
		if err != nil {
			return nil, err
		}
		recipients = ids
	}
	recipients = dedupeIDs(recipients)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipients selected", ErrInvalidInput)
	}

	key := strings.TrimSpace(req.DedupeKey)
	if key == "" {
		key = contentKey("admin", string(category), title, body)
	}
	template := domain.Notification{Category: category, Title: title, Body: body, DedupeKey: &key}
	created, err := s.repo.CreateNotifications(ctx, recipients, template)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin notification sent", "recipients", len(recipients), "created", created, "category", category)
	return &domain.SendResult{Recipients: len(recipients), Created: created}, nil
}

// contentKey derives a stable dedupe key from the message content, so resending the same
// message skips users who already have it.
func contentKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
