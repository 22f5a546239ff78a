/**
 * @description
 * Event handlers of the notifier. Each handler renders a plain-text email from an event
 * and delivers it through the mail API.
 *
 * @notes
 * - Handlers return true to ack. Malformed payloads and permanent mail API rejections are
 *   acked and logged; transient failures are nacked so the broker redelivers them.
 */
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/pkg/mailclient"
	"github.com/stackvest/backend/pkg/rabbitmq"
)

const sendTimeout = 30 * time.Second

// Mailer delivers one email.
type Mailer interface {
	Send(ctx context.Context, msg mailclient.Message) error
}

type Handler struct {
	mailer    Mailer
	templates templates
	logger    *slog.Logger
}

func NewHandler(mailer Mailer, publicBaseURL, supportEmail string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		mailer:    mailer,
		templates: templates{baseURL: strings.TrimSuffix(publicBaseURL, "/"), supportEmail: supportEmail},
		logger:    logger,
	}
}

// Bindings maps every routing key the notifier consumes to its handler.
func (h *Handler) Bindings() map[string]rabbitmq.Handler {
	bindings := map[string]rabbitmq.Handler{
		domain.EventUserRegistered:         h.HandleUserRegistered,
		domain.EventPasswordResetRequested: h.HandlePasswordReset,
		domain.EventTransferCompleted:      h.HandleTransferCompleted,
		domain.EventSupportReplied:         h.HandleSupportReplied,
		domain.EventNewsletterDispatch:     h.HandleNewsletter,
	}
	for _, key := range []string{
		domain.EventDepositApproved, domain.EventDepositRejected,
		domain.EventWithdrawalRequested, domain.EventWithdrawalCompleted, domain.EventWithdrawalRejected,
		domain.EventInvestmentCreated, domain.EventInvestmentMatured, domain.EventReferralBonus,
	} {
		bindings[key] = h.ledgerHandler(key)
	}
	return bindings
}

func (h *Handler) decode(routingKey string, body []byte, v interface{}) bool {
	if err := json.Unmarshal(body, v); err != nil {
		h.logger.Error("malformed event; dropping", "routing_key", routingKey, "error", err)
		return false
	}
	return true
}

// deliver sends one email and reports whether the message should be acked.
func (h *Handler) deliver(routingKey, to string, e email) bool {
	if strings.TrimSpace(to) == "" {
		h.logger.Warn("event has no recipient address; dropping", "routing_key", routingKey)
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	err := h.mailer.Send(ctx, mailclient.Message{To: []string{to}, Subject: e.Subject, Text: e.Text})
	if err == nil {
		h.logger.Info("email sent", "routing_key", routingKey, "to", to)
		return true
	}
	if isPermanent(err) {
		h.logger.Error("mail API rejected email; dropping", "routing_key", routingKey, "to", to, "error", err)
		return true
	}
	h.logger.Warn("email delivery failed; will retry", "routing_key", routingKey, "to", to, "error", err)
	return false
}

func isPermanent(err error) bool {
	var statusErr *mailclient.StatusError
	return errors.As(err, &statusErr) && statusErr.Permanent()
}

func (h *Handler) HandleUserRegistered(body []byte) bool {
	var event domain.UserRegisteredEvent
	if !h.decode(domain.EventUserRegistered, body, &event) {
		return true
	}
	return h.deliver(domain.EventUserRegistered, event.Email, h.templates.welcome(event))
}

func (h *Handler) HandlePasswordReset(body []byte) bool {
	var event domain.PasswordResetRequestedEvent
	if !h.decode(domain.EventPasswordResetRequested, body, &event) {
		return true
	}
	if event.Token == "" {
		h.logger.Error("password reset event without token; dropping", "user_id", event.UserID)
		return true
	}
	return h.deliver(domain.EventPasswordResetRequested, event.Email, h.templates.passwordReset(event))
}

func (h *Handler) ledgerHandler(routingKey string) rabbitmq.Handler {
	return func(body []byte) bool {
		var event domain.LedgerEvent
		if !h.decode(routingKey, body, &event) {
			return true
		}
		msg, ok := h.templates.ledger(routingKey, event)
		if !ok {
			h.logger.Warn("no template for routing key", "routing_key", routingKey)
			return true
		}
		return h.deliver(routingKey, event.Email, msg)
	}
}

// HandleTransferCompleted emails both parties. A redelivery after a partial failure may
// repeat the sender's receipt.
func (h *Handler) HandleTransferCompleted(body []byte) bool {
	var event domain.TransferCompletedEvent
	if !h.decode(domain.EventTransferCompleted, body, &event) {
		return true
	}
	if !h.deliver(domain.EventTransferCompleted, event.SenderEmail, h.templates.transferSent(event)) {
		return false
	}
	return h.deliver(domain.EventTransferCompleted, event.RecipientEmail, h.templates.transferReceived(event))
}

func (h *Handler) HandleSupportReplied(body []byte) bool {
	var event domain.SupportRepliedEvent
	if !h.decode(domain.EventSupportReplied, body, &event) {
		return true
	}
	return h.deliver(domain.EventSupportReplied, event.Email, h.templates.supportReply(event))
}

// HandleNewsletter sends a batch one recipient at a time. The batch is always acked:
// requeueing it would resend to recipients already reached, so failed addresses are only
// logged.
func (h *Handler) HandleNewsletter(body []byte) bool {
	var event domain.NewsletterDispatchEvent
	if !h.decode(domain.EventNewsletterDispatch, body, &event) {
		return true
	}
	var sent, failed int
	for _, recipient := range event.Recipients {
		if h.deliver(domain.EventNewsletterDispatch, recipient.Email, h.templates.newsletter(event.Subject, event.Body, recipient)) {
			sent++
		} else {
			failed++
		}
	}
	h.logger.Info("newsletter batch processed", "recipients", len(event.Recipients), "sent", sent, "failed", failed)
	return true
}
