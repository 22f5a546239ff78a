package notifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/stackvest/backend/internal/domain"
)

// email is a rendered plain-text message.
type email struct {
	Subject string
	Text    string
}

type templates struct {
	baseURL      string
	supportEmail string
}

func (t templates) footer() string {
	return fmt.Sprintf("\n\nQuestions? Reply to this email or write to %s.\nStackvest", t.supportEmail)
}

func greeting(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Hi,"
	}
	return fmt.Sprintf("Hi %s,", name)
}

func (t templates) welcome(e domain.UserRegisteredEvent) email {
	name := e.FullName
	if name == "" {
		name = e.Username
	}
	return email{
		Subject: "Welcome to Stackvest",
		Text: fmt.Sprintf("%s\n\nYour account is ready. Sign in at %s/login to fund your wallet and pick a plan.\n\n"+
			"Invite friends with your referral link and earn a bonus on their first deposit:\n%s/register?ref=%s",
			greeting(name), t.baseURL, t.baseURL, url.QueryEscape(e.ReferralCode)) + t.footer(),
	}
}

func (t templates) passwordReset(e domain.PasswordResetRequestedEvent) email {
	return email{
		Subject: "Reset your Stackvest password",
		Text: fmt.Sprintf("%s\n\nWe received a request to reset your password. Use the link below before %s:\n%s/reset-password?token=%s\n\n"+
			"If you did not ask for this, you can ignore this email.",
			greeting(e.Username), e.ExpiresAt, t.baseURL, url.QueryEscape(e.Token)) + t.footer(),
	}
}

func (t templates) ledger(routingKey string, e domain.LedgerEvent) (email, bool) {
	amount := domain.FormatCents(e.Amount)
	var subject, body string
	switch routingKey {
	case domain.EventDepositApproved:
		subject = "Deposit approved"
		body = fmt.Sprintf("Your deposit of %s has been approved and credited to your main balance.", amount)
	case domain.EventDepositRejected:
		subject = "Deposit rejected"
		body = fmt.Sprintf("Your deposit request of %s was rejected.", amount)
	case domain.EventWithdrawalRequested:
		subject = "Withdrawal request received"
		body = fmt.Sprintf("We received your withdrawal request of %s. The funds are on hold until it is processed.", amount)
	case domain.EventWithdrawalCompleted:
		subject = "Withdrawal sent"
		body = fmt.Sprintf("Your withdrawal of %s has been processed.", amount)
	case domain.EventWithdrawalRejected:
		subject = "Withdrawal rejected"
		body = fmt.Sprintf("Your withdrawal request of %s was rejected and the funds were returned to your main balance.", amount)
	case domain.EventInvestmentCreated:
		subject = "Investment started"
		body = fmt.Sprintf("You invested %s in %s. Daily gains are credited to your main balance until %s.", amount, e.PlanName, e.EndsAt)
	case domain.EventInvestmentMatured:
		subject = "Investment completed"
		body = fmt.Sprintf("Your %s investment of %s has completed with total earnings of %s.", e.PlanName, amount, domain.FormatCents(e.TotalEarned))
		if e.CapitalBack {
			body += " Your principal has been returned to your main balance."
		}
	case domain.EventReferralBonus:
		subject = "You earned a referral bonus"
		body = fmt.Sprintf("A friend you referred made their first deposit. %s has been added to your referral balance.", amount)
	default:
		return email{}, false
	}
	if e.Note != "" {
		body += "\n\nNote: " + e.Note
	}
	return email{Subject: subject, Text: greeting(e.Username) + "\n\n" + body + t.footer()}, true
}

func (t templates) transferSent(e domain.TransferCompletedEvent) email {
	body := fmt.Sprintf("You sent %s to %s. A fee of %s was charged.",
		domain.FormatCents(e.Amount), e.RecipientUsername, domain.FormatCents(e.Fee))
	return email{Subject: "Transfer sent", Text: greeting(e.SenderUsername) + "\n\n" + body + t.footer()}
}

func (t templates) transferReceived(e domain.TransferCompletedEvent) email {
	body := fmt.Sprintf("%s sent you %s.", e.SenderUsername, domain.FormatCents(e.Amount))
	if e.Note != "" {
		body += "\n\nNote: " + e.Note
	}
	return email{Subject: "You received a transfer", Text: greeting(e.RecipientUsername) + "\n\n" + body + t.footer()}
}

func (t templates) supportReply(e domain.SupportRepliedEvent) email {
	return email{
		Subject: "Re: " + e.Subject,
		Text:    greeting(e.Name) + "\n\n" + e.Reply + t.footer(),
	}
}

func (t templates) newsletter(subject, body string, r domain.NewsletterRecipient) email {
	return email{
		Subject: subject,
		Text: body + fmt.Sprintf("\n\n--\nYou are receiving this because you subscribed to Stackvest updates.\nUnsubscribe: %s/newsletter/unsubscribe?token=%s",
			t.baseURL, url.QueryEscape(r.UnsubscribeToken)),
	}
}
