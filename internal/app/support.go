package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/domain"
)

const (
	maxSubjectLength = 200
	maxBodyLength    = 5000
)

func validateContact(req domain.ContactRequest) (domain.ContactRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Body = strings.TrimSpace(req.Body)
	switch {
	case req.Name == "":
		return req, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case req.Subject == "" || len(req.Subject) > maxSubjectLength:
		return req, fmt.Errorf("%w: subject must be 1-%d characters", ErrInvalidInput, maxSubjectLength)
	case req.Body == "" || len(req.Body) > maxBodyLength:
		return req, fmt.Errorf("%w: message must be 1-%d characters", ErrInvalidInput, maxBodyLength)
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return req, err
	}
	req.Email = email
	return req, nil
}

// SubmitContact stores an anonymous message from the marketing site.
func (s *Service) SubmitContact(ctx context.Context, req domain.ContactRequest) (*domain.SupportMessage, error) {
	req, err := validateContact(req)
	if err != nil {
		return nil, err
	}
	msg := &domain.SupportMessage{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.repo.CreateSupportMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.logger.Info("contact message received", "support_id", msg.ID)
	return msg, nil
}

// SubmitTicket stores a support ticket from a signed-in user, using their profile contact.
func (s *Service) SubmitTicket(ctx context.Context, userID uuid.UUID, req domain.ContactRequest) (*domain.SupportMessage, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.Email = user.Email
	if strings.TrimSpace(req.Name) == "" {
		req.Name = user.FullName
		if req.Name == "" {
			req.Name = user.Username
		}
	}
	req, err = validateContact(req)
	if err != nil {
		return nil, err
	}
	msg := &domain.SupportMessage{
		ID:      uuid.New(),
		UserID:  &userID,
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := s.repo.CreateSupportMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.logger.Info("support ticket opened", "support_id", msg.ID, "user_id", userID)
	return msg, nil
}

func (s *Service) ListMyTickets(ctx context.Context, userID uuid.UUID, opts domain.ListOptions) ([]domain.SupportMessage, error) {
	items, err := s.repo.ListSupportMessagesByUser(ctx, userID, opts)
	if items == nil && err == nil {
		items = []domain.SupportMessage{}
	}
	return items, err
}

func (s *Service) ListTickets(ctx context.Context, status domain.SupportStatus, opts domain.ListOptions) ([]domain.SupportMessage, error) {
	switch status {
	case "", domain.SupportOpen, domain.SupportReplied, domain.SupportClosed:
	default:
		return nil, fmt.Errorf("%w: unknown ticket status %q", ErrInvalidInput, status)
	}
	items, err := s.repo.ListSupportMessages(ctx, status, opts)
	if items == nil && err == nil {
		items = []domain.SupportMessage{}
	}
	return items, err
}

func (s *Service) ReplyTicket(ctx context.Context, ticketID uuid.UUID, reply string) (*domain.SupportMessage, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" || len(reply) > maxBodyLength {
		return nil, fmt.Errorf("%w: reply must be 1-%d characters", ErrInvalidInput, maxBodyLength)
	}
	msg, err := s.repo.ReplySupportMessage(ctx, ticketID, reply, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("support ticket replied", "support_id", ticketID)
	return msg, nil
}

func (s *Service) CloseTicket(ctx context.Context, ticketID uuid.UUID) error {
	return s.repo.CloseSupportMessage(ctx, ticketID)
}
