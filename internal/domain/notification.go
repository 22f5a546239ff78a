package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationCategory groups in-app notifications.
type NotificationCategory string

const (
	CategorySystem     NotificationCategory = "system"
	CategoryAccount    NotificationCategory = "account"
	CategoryInvestment NotificationCategory = "investment"
	CategoryNewsletter NotificationCategory = "newsletter"
)

func (c NotificationCategory) Valid() bool {
	switch c {
	case CategorySystem, CategoryAccount, CategoryInvestment, CategoryNewsletter:
		return true
	}
	return false
}

type Notification struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	DedupeKey *string              `json:"-"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NotificationListOptions filters the in-app inbox. Status is "read", "unread" or empty.
type NotificationListOptions struct {
	Limit    int
	Offset   int
	Category NotificationCategory
	Status   string
}

// SendNotificationRequest is the admin broadcast DTO. All targets every active user.
type SendNotificationRequest struct {
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Category NotificationCategory `json:"category"`
	UserIDs  []uuid.UUID          `json:"user_ids"`
	All      bool                 `json:"all"`
	// DedupeKey overrides the key derived from category, title and body.
	DedupeKey string `json:"dedupe_key"`
}

type SendResult struct {
	Recipients int `json:"recipients"`
	Created    int `json:"created"`
}
