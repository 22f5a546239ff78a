/**
 * @description
 * Core domain models for platform users and their balance buckets.
 *
 * @notes
 * - Amounts are int64 minor units (cents) to avoid floating point drift.
 * - Balances.Total is computed by the database as main + investment + referral.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role grants access to the admin surface.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserStatus controls whether a user can authenticate.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the account holder record.
type User struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	PasswordHash    string     `json:"-"`
	Role            Role       `json:"role"`
	Status          UserStatus `json:"status"`
	ReferralCode    string     `json:"referral_code"`
	ReferredBy      *uuid.UUID `json:"referred_by,omitempty"`
	NewsletterOptIn bool       `json:"newsletter_opt_in"`
	FirstDepositAt  *time.Time `json:"first_deposit_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Bucket names one of the balances a user holds.
type Bucket string

const (
	BucketMain       Bucket = "main"
	BucketInvestment Bucket = "investment"
	BucketReferral   Bucket = "referral"
)

// Valid reports whether b names a known balance bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketMain, BucketInvestment, BucketReferral:
		return true
	}
	return false
}

// Balances is the per-user balance row.
type Balances struct {
	UserID     uuid.UUID `json:"user_id"`
	Main       int64     `json:"main"`
	Investment int64     `json:"investment"`
	Referral   int64     `json:"referral"`
	Total      int64     `json:"total"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Of returns the amount held in bucket b.
func (b Balances) Of(bucket Bucket) int64 {
	switch bucket {
	case BucketMain:
		return b.Main
	case BucketInvestment:
		return b.Investment
	case BucketReferral:
		return b.Referral
	}
	return 0
}

// UserDetail combines the profile with balances for admin views.
type UserDetail struct {
	User     User     `json:"user"`
	Balances Balances `json:"balances"`
}

// ActivityLog records an auditable action performed by or on behalf of a user.
type ActivityLog struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// PasswordResetToken is a single-use, hashed reset credential.
type PasswordResetToken struct {
	TokenHash string
	UserID    uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// RegisterRequest is the DTO for sign-up requests.
type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	Password        string `json:"password"`
	ReferralCode    string `json:"referral_code"`
	NewsletterOptIn bool   `json:"newsletter_opt_in"`
}

// LoginRequest is the DTO for credential logins.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after a successful login or registration.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// ListOptions carries common pagination parameters.
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize clamps pagination into sane bounds.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 50
	}
	if o.Limit > 200 {
		o.Limit = 200
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
