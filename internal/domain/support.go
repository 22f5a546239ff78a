package domain

import (
	"time"

	"github.com/google/uuid"
)

type SupportStatus string

const (
	SupportOpen    SupportStatus = "open"
	SupportReplied SupportStatus = "replied"
	SupportClosed  SupportStatus = "closed"
)

// SupportMessage is either a marketing-site contact message (UserID nil) or a ticket.
type SupportMessage struct {
	ID         uuid.UUID     `json:"id"`
	UserID     *uuid.UUID    `json:"user_id,omitempty"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Subject    string        `json:"subject"`
	Body       string        `json:"body"`
	Status     SupportStatus `json:"status"`
	AdminReply string        `json:"admin_reply,omitempty"`
	RepliedAt  *time.Time    `json:"replied_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type ReplyRequest struct {
	Reply string `json:"reply"`
}

type NewsletterSubscriber struct {
	Email            string    `json:"email"`
	Subscribed       bool      `json:"subscribed"`
	UnsubscribeToken string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
}

type NewsletterRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// InApp also creates a newsletter notification for every registered subscriber.
	InApp bool `json:"in_app"`
}

type NewsletterResult struct {
	Recipients    int  `json:"recipients"`
	Batches       int  `json:"batches"`
	Notifications int  `json:"notifications"`
	InAppFailed   bool `json:"in_app_failed,omitempty"`
}
