package domain

// Routing keys published to the events exchange.
const (
	EventUserRegistered         = "user.registered"
	EventPasswordResetRequested = "password.reset_requested"
	EventDepositApproved        = "deposit.approved"
	EventDepositRejected        = "deposit.rejected"
	EventWithdrawalRequested    = "withdrawal.requested"
	EventWithdrawalCompleted    = "withdrawal.completed"
	EventWithdrawalRejected     = "withdrawal.rejected"
	EventTransferCompleted      = "transfer.completed"
	EventInvestmentCreated      = "investment.created"
	EventInvestmentMatured      = "investment.matured"
	EventReferralBonus          = "referral.bonus_credited"
	EventSupportReplied         = "support.replied"
	EventNewsletterDispatch     = "newsletter.dispatch"
)

// Event payloads carry the recipient's address so the notifier never reads the database.

type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code"`
}

type PasswordResetRequestedEvent struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// LedgerEvent covers deposit, withdrawal and investment notifications.
type LedgerEvent struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	ReferenceID string `json:"reference_id"`
	Amount      int64  `json:"amount"`
	Note        string `json:"note,omitempty"`
	PlanName    string `json:"plan_name,omitempty"`
	EndsAt      string `json:"ends_at,omitempty"`
	TotalEarned int64  `json:"total_earned,omitempty"`
	CapitalBack bool   `json:"capital_back,omitempty"`
}

type TransferCompletedEvent struct {
	TransferID        string `json:"transfer_id"`
	SenderEmail       string `json:"sender_email"`
	SenderUsername    string `json:"sender_username"`
	RecipientEmail    string `json:"recipient_email"`
	RecipientUsername string `json:"recipient_username"`
	Amount            int64  `json:"amount"`
	Fee               int64  `json:"fee"`
	Note              string `json:"note,omitempty"`
}

type SupportRepliedEvent struct {
	TicketID string `json:"ticket_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Reply    string `json:"reply"`
}

// NewsletterRecipient pairs an address with its one-click unsubscribe token.
type NewsletterRecipient struct {
	Email            string `json:"email"`
	UnsubscribeToken string `json:"unsubscribe_token"`
}

type NewsletterDispatchEvent struct {
	Subject    string                `json:"subject"`
	Body       string                `json:"body"`
	Recipients []NewsletterRecipient `json:"recipients"`
}
